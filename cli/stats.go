package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hannajonsd/bundle-audit/advisory"
)

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Prints ruby-advisory-db stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.stats(cmd.Context())
		},
	}
}

func (a *app) stats(ctx context.Context) error {
	db, err := advisory.NewLoader(a.settings.Workers).Load(ctx, a.settings.Database)
	if err != nil {
		return err
	}

	lastUpdated := db.LastUpdated()
	if commit, err := a.updater().CommitTime(ctx); err == nil {
		lastUpdated = commit
	}

	fmt.Fprintln(a.stdout, "ruby-advisory-db:")
	fmt.Fprintf(a.stdout, "  advisories:\t%d advisories\n", db.Size())
	fmt.Fprintf(a.stdout, "  last updated:\t%s\n", lastUpdated.Format(time.RFC1123Z))
	return nil
}
