// Command indieauth signs in to a website using IndieAuth, keeping the
// resulting access token for other tools to use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"hawx.me/code/indieauth-signin/internal/config"
	"hawx.me/code/indieauth-signin/internal/logging"
)

var (
	configPath string
	cfg        config.Config
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "indieauth",
		Short:        "Sign in to your website with IndieAuth",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return oops.In("config").Wrapf(err, "loading configuration")
			}
			cfg = loaded

			if err := logging.Init(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err != nil {
				return oops.In("config").Wrapf(err, "initialising the logger")
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(
		signInCmd(),
		signOutCmd(),
		whoamiCmd(),
		discoverCmd(),
		daemonCmd(),
		serveCmd(),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slogctx.Debug(ctx, "command failed", "error", err)
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
