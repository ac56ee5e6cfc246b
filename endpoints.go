package indieauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/html"
)

// Relations looked up in the identity document.
const (
	RelAuthorization = "authorization_endpoint"
	RelToken         = "token_endpoint"
	RelTicket        = "ticket_endpoint"
	RelMicropub      = "micropub"
	RelMicrosub      = "microsub"
	RelWebmention    = "webmention"
)

// Endpoints are the absolute URLs advertised by an identity document. A
// relation that was not advertised is left empty.
type Endpoints struct {
	Authorization string `json:"authorization,omitempty"`
	Token         string `json:"token,omitempty"`
	Ticket        string `json:"ticket,omitempty"`
	Micropub      string `json:"micropub,omitempty"`
	Microsub      string `json:"microsub,omitempty"`
	Webmention    string `json:"webmention,omitempty"`
}

// A Resolver discovers the Endpoints for identity URLs.
type Resolver struct {
	Client *http.Client
}

// FindEndpoints fetches identityURL and reads the endpoints from the link
// elements in the returned HTML. Only the document is consulted; Link headers
// and metadata documents are not.
//
// A response other than 200 OK returns ErrUnresolvableIdentity.
func (r *Resolver) FindEndpoints(ctx context.Context, identityURL string) (Endpoints, error) {
	var endpoints Endpoints

	client := http.DefaultClient
	if r != nil && r.Client != nil {
		client = r.Client
	}

	meURL, err := url.Parse(identityURL)
	if err != nil {
		return endpoints, fmt.Errorf("%w: %w", ErrUnresolvableIdentity, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meURL.String(), nil)
	if err != nil {
		return endpoints, fmt.Errorf("%w: %w", ErrUnresolvableIdentity, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return endpoints, fmt.Errorf("%w: %w", ErrUnresolvableIdentity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return endpoints, fmt.Errorf("%w: %w", ErrUnresolvableIdentity, readRequestError(resp))
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return endpoints, fmt.Errorf("%w: %w", ErrUnresolvableIdentity, err)
	}

	return findEndpoints(meURL, root), nil
}

func findEndpoints(meURL *url.URL, root *html.Node) Endpoints {
	base := meURL
	if bases := searchAll(root, isBase); len(bases) > 0 {
		if baseURL, err := meURL.Parse(getAttr(bases[0], "href")); err == nil {
			base = baseURL
		}
	}

	rels := firstRels(root, RelAuthorization, RelToken, RelTicket, RelMicropub, RelMicrosub, RelWebmention)

	resolve := func(rel string) string {
		href, ok := rels[rel]
		if !ok {
			return ""
		}

		// an empty href refers to the document itself

		linkURL, err := base.Parse(href)
		if err != nil {
			return ""
		}

		return linkURL.String()
	}

	return Endpoints{
		Authorization: resolve(RelAuthorization),
		Token:         resolve(RelToken),
		Ticket:        resolve(RelTicket),
		Micropub:      resolve(RelMicropub),
		Microsub:      resolve(RelMicrosub),
		Webmention:    resolve(RelWebmention),
	}
}
