package main

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/peterhellberg/link"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	indieauth "hawx.me/code/indieauth-signin"
)

func discoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <identity-url>",
		Short: "Show the endpoints advertised by a website",
		Long: `Show the endpoints advertised by the link elements of a website. Relations
only sent as HTTP Link headers are listed separately, as they are not used
for signing in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			identityURL := args[0]
			client := &http.Client{Timeout: cfg.HTTP.Timeout}

			resolver := &indieauth.Resolver{Client: client}
			endpoints, err := resolver.FindEndpoints(ctx, identityURL)
			if err != nil {
				return oops.In("discover").Wrapf(err, "finding endpoints for %s", identityURL)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, row := range []struct{ rel, href string }{
				{indieauth.RelAuthorization, endpoints.Authorization},
				{indieauth.RelToken, endpoints.Token},
				{indieauth.RelTicket, endpoints.Ticket},
				{indieauth.RelMicropub, endpoints.Micropub},
				{indieauth.RelMicrosub, endpoints.Microsub},
				{indieauth.RelWebmention, endpoints.Webmention},
			} {
				href := row.href
				if href == "" {
					href = "-"
				}
				fmt.Fprintf(w, "%s\t%s\n", row.rel, href)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			headerOnly, err := linkHeaderRels(cmd, client, identityURL, endpoints)
			if err != nil {
				return oops.In("discover").Wrapf(err, "reading link headers")
			}
			if len(headerOnly) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nIgnored Link headers:")
				for rel, uri := range headerOnly {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\t%s\n", rel, uri)
				}
			}

			return nil
		},
	}
}

// linkHeaderRels returns the known relations that the identity URL sends as
// Link headers but that were not found in its HTML.
func linkHeaderRels(cmd *cobra.Command, client *http.Client, identityURL string, endpoints indieauth.Endpoints) (map[string]string, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, identityURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	found := map[string]string{
		indieauth.RelAuthorization: endpoints.Authorization,
		indieauth.RelToken:         endpoints.Token,
		indieauth.RelTicket:        endpoints.Ticket,
		indieauth.RelMicropub:      endpoints.Micropub,
		indieauth.RelMicrosub:      endpoints.Microsub,
		indieauth.RelWebmention:    endpoints.Webmention,
	}

	headerOnly := map[string]string{}
	for rel, l := range link.ParseResponse(resp) {
		if href, known := found[rel]; known && href == "" {
			headerOnly[rel] = l.URI
		}
	}

	return headerOnly, nil
}
