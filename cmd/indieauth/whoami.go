package main

import (
	"encoding/json"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func whoamiCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			session, ok, err := a.store.Load(cmd.Context())
			if err != nil {
				return oops.In("whoami").Wrapf(err, "reading session")
			}

			if asJSON {
				if !ok {
					fmt.Fprintln(out, "{}")
					return nil
				}

				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(session)
			}

			if !ok {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}

			fmt.Fprintf(out, "Signed in as %s\n", session.Me)
			if session.Profile.Name != "" {
				fmt.Fprintf(out, "Name: %s\n", session.Profile.Name)
			}
			if session.Endpoints.Micropub != "" {
				fmt.Fprintf(out, "Micropub: %s\n", session.Endpoints.Micropub)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the whole session as JSON")

	return cmd
}
