package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"hawx.me/code/indieauth-signin/capture/loopback"
)

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Perform sign-in and sign-out requests sent over valkey",
		Long: `Perform sign-in and sign-out requests sent by other indieauth commands.
Requires channel "valkey", and a storage backend the other commands can also
reach.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if a.isLocal() {
				return oops.In("daemon").Errorf(`the daemon needs channel "valkey" to receive requests`)
			}

			capturer, err := loopback.Listen(cfg.Loopback.Addr, openInBrowser(cmd.ErrOrStderr()))
			if err != nil {
				return oops.In("daemon").Wrapf(err, "starting redirect listener")
			}
			defer capturer.Close()

			slogctx.Info(ctx, "waiting for requests", "channel", cfg.Valkey.Channel)

			if err := a.background(capturer).Serve(ctx, a.channel); err != nil {
				return oops.In("daemon").Wrapf(err, "receiving requests")
			}

			return nil
		},
	}
}
