package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	indieauth "hawx.me/code/indieauth-signin"
	"hawx.me/code/indieauth-signin/capture/loopback"
)

func signInCmd() *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "sign-in <identity-url>",
		Short: "Sign in as the owner of a website",
		Long: `Sign in as the owner of a website. The authorization page is opened in a
browser and the redirect back is captured on a local port.

With channel "valkey" the request is sent to a running "indieauth daemon"
instead, and this command waits for the session to appear.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if clientID == "" {
				clientID = cfg.ClientID
			}
			if clientID == "" {
				return oops.In("sign-in").Errorf("a client id is required, set --client-id or INDIEAUTH_CLIENT_ID")
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			var failed <-chan error
			if a.isLocal() {
				capturer, err := loopback.Listen(cfg.Loopback.Addr, openInBrowser(cmd.ErrOrStderr()))
				if err != nil {
					return oops.In("sign-in").Wrapf(err, "starting redirect listener")
				}
				defer capturer.Close()

				var stop func()
				failed, stop = a.runBackground(ctx, a.background(capturer))
				defer stop()
			}

			client := a.newClient(indieauth.ObserverFuncs{
				OnSignIn: func(session indieauth.Session) {
					fmt.Fprintf(out, "Signed in as %s\n", session.Me)
				},
			})
			defer client.Close()

			watch, err := client.SignIn(ctx, args[0], clientID)
			if err != nil {
				return oops.In("sign-in").Wrapf(err, "sending sign-in request")
			}

			if err := waitFor(ctx, watch, failed); err != nil {
				return oops.In("sign-in").Wrapf(err, "signing in as %s", args[0])
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "client id to sign in with (defaults to the configured one)")

	return cmd
}
