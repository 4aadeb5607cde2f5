// Package cli implements the mysked command line: the HTTP server and
// one-shot timeline and timesheet queries against the backend.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eagle-green/mysked/internal/config"
	"github.com/eagle-green/mysked/internal/upstream"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// options are the global flags and the state derived from them before a
// subcommand runs.
type options struct {
	configPath string
	logPath    string
	token      string

	cfg      *config.Config
	closeLog func()
}

// NewRootCmd returns the mysked command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "mysked",
		Short: "Vehicle, site and employee history timelines",
		Long: `mysked reads history entries and inventory transactions from the
scheduling backend, groups transactions recorded as one drop-off or pickup,
and serves the merged timeline as JSON, XLSX and HTML.

Use "mysked serve" to run the server, or query the backend directly with
"mysked timeline" and "mysked missing".`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.closeLog != nil {
				opts.closeLog()
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath(), "YAML config file")
	root.PersistentFlags().StringVarP(&opts.logPath, "log", "l", "", "also append logs to this file")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "backend token for timeline and missing (env "+config.EnvToken+")")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newTimelineCmd(opts))
	root.AddCommand(newMissingCmd(opts))
	root.AddCommand(newHashKeyCmd())

	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *options) setup(cmd *cobra.Command) error {
	logPath := o.logPath
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if logPath == "" {
		logPath = cfg.Log.Path
	}

	logger, cleanup, err := newLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), logPath, cfg.Log.Level, cmd.Name())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if o.token == "" {
		o.token = os.Getenv(config.EnvToken)
	}
	o.cfg = cfg
	o.closeLog = cleanup
	return nil
}

// client builds an upstream client carrying the CLI token.
func (o *options) client(ctx context.Context) (*upstream.Client, context.Context, error) {
	if o.token == "" {
		return nil, ctx, fmt.Errorf("a backend token is required: pass --token or set %s", config.EnvToken)
	}
	c, err := upstream.New(upstream.Options{
		BaseURL:   o.cfg.Upstream.BaseURL,
		Timeout:   o.cfg.Upstream.Timeout,
		RateLimit: o.cfg.Upstream.RateLimit,
		Burst:     o.cfg.Upstream.Burst,
	})
	if err != nil {
		return nil, ctx, err
	}
	return c, upstream.WithToken(ctx, o.token), nil
}
