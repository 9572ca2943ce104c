package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hannajonsd/bundle-audit/advisory"
	"github.com/hannajonsd/bundle-audit/config"
	"github.com/hannajonsd/bundle-audit/lockfile"
	"github.com/hannajonsd/bundle-audit/telemetry"
)

// Version is set at build time with -ldflags "-X github.com/hannajonsd/bundle-audit/cli.Version=..."
var Version = "0.9.2"

// ErrVulnerable is returned by check when the report contains findings
var ErrVulnerable = errors.New("vulnerabilities found")

var exit = os.Exit

// app carries the state shared by all commands of one invocation
type app struct {
	v        *viper.Viper
	cfgFile  string
	stdout   io.Writer
	stderr   io.Writer
	now      func() time.Time
	git      advisory.GitRunner
	settings *config.Settings
	metrics  *telemetry.Metrics
	closeLog func() error
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      config.New(),
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		git:    advisory.ExecGit{},
	}
}

// Execute runs the command line and exits with its status
func Execute() {
	exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes args and returns the process exit status
func Run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newApp(stdout, stderr).run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(defaultToCheck(root, args))
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if ferr := a.finish(); ferr != nil && err == nil {
		err = ferr
	}
	if err == nil {
		return 0
	}

	var notFound *lockfile.NotFoundError
	switch {
	case errors.Is(err, ErrVulnerable):
	case errors.As(err, &notFound):
		fmt.Fprintln(a.stderr, err)
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return 1
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bundle-audit",
		Short: "Patch-level verification for bundler",
		Long: `bundle-audit checks a Gemfile.lock for gem versions with known
vulnerabilities and for gem sources fetched over insecure transports,
using the ruby-advisory-db.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./"+config.FileName+")")
	flags.StringP("database", "D", "", "path to the ruby-advisory-db checkout")
	flags.BoolP("verbose", "v", false, "show advisory descriptions and debug logging")
	flags.BoolP("quiet", "q", false, "only print findings")
	flags.String("log-format", "text", "diagnostic log format: text or json")
	flags.String("log-file", "", "also append JSON logs to this file")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile")
	flags.Int("workers", advisory.DefaultWorkers, "number of advisory files decoded in parallel")
	flags.String("repository", advisory.DefaultRepository, "advisory database git repository")

	root.AddCommand(
		a.checkCommand(),
		a.updateCommand(),
		a.statsCommand(),
		a.versionCommand(),
	)
	return root
}

// defaultToCheck makes check the implicit command, so that "bundle-audit -q" audits
func defaultToCheck(root *cobra.Command, args []string) []string {
	if len(args) > 0 {
		switch args[0] {
		case "help", "completion", "-h", "--help":
			return args
		}
		if cmd, _, err := root.Find(args); err == nil && cmd != root {
			return args
		}
	}
	return append([]string{"check"}, args...)
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}

	dir := "."
	if cmd.Name() == "check" && len(args) > 0 {
		dir = args[0]
	}

	settings, err := config.Load(a.v, a.cfgFile, dir)
	if err != nil {
		return err
	}
	a.settings = settings

	a.closeLog = telemetry.InitLogger(a.stderr, telemetry.LogOptions{
		Debug:  settings.Verbose,
		Format: settings.LogFormat,
		File:   settings.LogFile,
	})
	if used := a.v.ConfigFileUsed(); used != "" {
		telemetry.LogDebug("using config file", "path", used)
	}

	if settings.MetricsFile != "" {
		a.metrics = telemetry.NewMetrics()
	}
	return nil
}

// finish flushes metrics and closes the log file, whether or not the command failed
func (a *app) finish() error {
	var errs []error
	if a.metrics != nil && a.settings != nil {
		if err := a.metrics.WriteTextfile(a.settings.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
		a.metrics = nil
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, err)
		}
		a.closeLog = nil
	}
	return errors.Join(errs...)
}

func (a *app) updater() *advisory.Updater {
	u := advisory.NewUpdater(a.settings.Database, a.settings.Repository)
	u.Git = a.git
	return u
}

// say prints progress messages unless --quiet is set
func (a *app) say(format string, args ...any) {
	if a.settings != nil && a.settings.Quiet {
		return
	}
	fmt.Fprintf(a.stdout, format+"\n", args...)
}
