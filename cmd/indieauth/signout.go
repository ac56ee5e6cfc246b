package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	indieauth "hawx.me/code/indieauth-signin"
)

func signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-out",
		Short: "Revoke the stored access token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			var failed <-chan error
			if a.isLocal() {
				var stop func()
				failed, stop = a.runBackground(ctx, a.background(nil))
				defer stop()
			}

			client := a.newClient(indieauth.ObserverFuncs{
				OnSignOut: func() {
					fmt.Fprintln(out, "Signed out")
				},
			})
			defer client.Close()

			watch, err := client.SignOut(ctx)
			if err != nil {
				return oops.In("sign-out").Wrapf(err, "sending sign-out request")
			}

			if err := waitFor(ctx, watch, failed); err != nil {
				return oops.In("sign-out").Wrapf(err, "signing out")
			}

			return nil
		},
	}
}
