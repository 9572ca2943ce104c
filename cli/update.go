package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hannajonsd/bundle-audit/advisory"
	"github.com/hannajonsd/bundle-audit/telemetry"
)

func (a *app) updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Updates the ruby-advisory-db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.update(cmd.Context(), a.updater()); err != nil {
				return err
			}
			if a.settings.Quiet {
				return nil
			}
			return a.stats(cmd.Context())
		},
	}
}

func (a *app) update(ctx context.Context, u *advisory.Updater) error {
	a.say("Updating ruby-advisory-db ...")

	cloned, err := u.Update(ctx)
	a.metrics.TrackUpdate(err == nil)
	if err != nil {
		telemetry.LogError("failed updating ruby-advisory-db", err, "path", u.Path)
		a.say("Failed updating ruby-advisory-db!")
		return err
	}

	if cloned {
		a.say("Downloaded ruby-advisory-db")
	} else {
		a.say("Updated ruby-advisory-db")
	}
	return nil
}
