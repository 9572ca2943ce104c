package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hannajonsd/bundle-audit/advisory"
	"github.com/hannajonsd/bundle-audit/analyzer"
	"github.com/hannajonsd/bundle-audit/source"
	"github.com/hannajonsd/bundle-audit/telemetry"
)

func (a *app) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [DIR]",
		Short: "Checks the Gemfile.lock for insecure dependencies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return a.check(cmd.Context(), dir)
		},
	}

	flags := cmd.Flags()
	flags.StringP("gemfile-lock", "G", "Gemfile.lock", "name of the lockfile to audit")
	flags.StringSliceP("ignore", "i", nil, "advisory IDs to ignore (repeatable)")
	flags.BoolP("update", "u", false, "update the advisory database before checking")
	flags.StringP("format", "F", "text", "output format: text or json")
	flags.StringP("output", "o", "", "write the report to this file")
	flags.Duration("max-age", 7*24*time.Hour, "warn when the advisory database is older than this")
	flags.Bool("trust-internal-hosts", false, "do not flag plain transports to localhost or private addresses")

	return cmd
}

func (a *app) check(ctx context.Context, dir string) error {
	s := a.settings
	u := a.updater()

	if _, err := os.Stat(s.Database); errors.Is(err, fs.ErrNotExist) {
		a.say("Download ruby-advisory-db ...")
		if err := u.Download(ctx); err != nil {
			a.metrics.TrackUpdate(false)
			return err
		}
		a.metrics.TrackUpdate(true)
	} else if s.Update {
		if err := a.update(ctx, u); err != nil {
			return err
		}
	}

	db, err := advisory.NewLoader(s.Workers).Load(ctx, s.Database)
	if err != nil {
		return err
	}

	now := a.now()
	lastUpdated := db.LastUpdated()
	stale := db.Stale(s.MaxAge, now)
	if commit, err := u.CommitTime(ctx); err == nil {
		lastUpdated = commit
		stale = s.MaxAge > 0 && now.Sub(commit) > s.MaxAge
	}
	a.metrics.ObserveDatabase(db.Size(), lastUpdated, now)
	if stale {
		telemetry.LogWarn("advisory database is stale, run bundle-audit update", "last_updated", lastUpdated.Format(time.RFC3339), "max_age", s.MaxAge.String())
	}
	telemetry.LogDebug("loaded advisory database", "path", db.Path(), "advisories", db.Size())

	auditor := analyzer.New(&source.Validator{TrustInternalHosts: s.TrustInternalHosts}).WithMetrics(a.metrics)
	report, err := auditor.AuditBundle(dir, s.GemfileLock, db, analyzer.NewIgnoreSet(s.Ignore...))
	if err != nil {
		return err
	}

	if err := a.render(report); err != nil {
		return err
	}
	if report.Vulnerable() {
		return ErrVulnerable
	}
	return nil
}

func (a *app) render(report *analyzer.Report) error {
	s := a.settings

	var w io.Writer = a.stdout
	if s.Output != "" {
		f, err := os.Create(s.Output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", s.Output, err)
		}
		defer f.Close()
		w = f
	}

	formatter, err := analyzer.NewFormatter(s.Format, analyzer.FormatOptions{
		Color:   s.Output == "" && a.stdout == os.Stdout && !color.NoColor,
		Quiet:   s.Quiet,
		Verbose: s.Verbose,
		Version: Version,
	})
	if err != nil {
		return err
	}
	return formatter.Print(w, report)
}
