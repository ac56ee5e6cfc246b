// Package testsite runs a fake IndieAuth site for tests: a homepage
// advertising its endpoints, an authorization endpoint that approves every
// request, and a token endpoint that checks PKCE and handles revocation.
package testsite

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

type grant struct {
	clientID    string
	redirectURI string
	challenge   string
	scope       string
}

// Site is a fake IndieAuth site.
type Site struct {
	*httptest.Server

	// AccessToken is issued for every successful exchange.
	AccessToken string

	// Profile is written as the profile of the token response, as raw JSON.
	Profile string

	// TokenStatus and RevokeStatus, if set, are returned instead of handling
	// the request.
	TokenStatus  int
	RevokeStatus int

	// HomeStatus, if set, is returned for the homepage.
	HomeStatus int

	// OmitToken leaves the token endpoint out of the homepage.
	OmitToken bool

	mu          sync.Mutex
	grants      map[string]grant
	codes       int
	exchanges   int
	revocations []string
	homeHits    int
}

// New starts a Site. Close it when done.
func New() *Site {
	s := &Site{
		AccessToken: "tokentoken",
		Profile:     `{"name": "John Doe"}`,
		grants:      map[string]grant{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveHome)
	mux.HandleFunc("/auth", s.serveAuth)
	mux.HandleFunc("/token", s.serveToken)

	s.Server = httptest.NewServer(mux)
	return s
}

// Exchanges returns how many codes were exchanged successfully.
func (s *Site) Exchanges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchanges
}

// Revocations returns the tokens revoked, in order.
func (s *Site) Revocations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.revocations...)
}

// HomeHits returns how many times the homepage was fetched.
func (s *Site) HomeHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.homeHits
}

func (s *Site) serveHome(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.homeHits++
	s.mu.Unlock()

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.HomeStatus != 0 {
		http.Error(w, "", s.HomeStatus)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html><html><head>`)
	fmt.Fprint(w, `<link rel="authorization_endpoint" href="/auth">`)
	if !s.OmitToken {
		fmt.Fprint(w, `<link rel="token_endpoint" href="/token">`)
	}
	fmt.Fprint(w, `<link rel="micropub" href="/micropub">`)
	fmt.Fprint(w, `</head><body></body></html>`)
}

// serveAuth approves the request straight away, redirecting with a code.
func (s *Site) serveAuth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("response_type") != "code" || q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		http.Error(w, "bad authorization request", http.StatusBadRequest)
		return
	}

	redirectURI, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || redirectURI.Scheme == "" {
		http.Error(w, "bad redirect_uri", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.codes++
	code := fmt.Sprintf("code-%d", s.codes)
	s.grants[code] = grant{
		clientID:    q.Get("client_id"),
		redirectURI: q.Get("redirect_uri"),
		challenge:   q.Get("code_challenge"),
		scope:       q.Get("scope"),
	}
	s.mu.Unlock()

	query := redirectURI.Query()
	query.Set("code", code)
	query.Set("state", q.Get("state"))
	redirectURI.RawQuery = query.Encode()

	http.Redirect(w, r, redirectURI.String(), http.StatusFound)
}

func (s *Site) serveToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
		http.Error(w, "bad token request", http.StatusBadRequest)
		return
	}

	if r.FormValue("action") == "revoke" {
		if s.RevokeStatus != 0 {
			http.Error(w, "", s.RevokeStatus)
			return
		}

		s.mu.Lock()
		s.revocations = append(s.revocations, r.FormValue("token"))
		s.mu.Unlock()
		return
	}

	if s.TokenStatus != 0 {
		http.Error(w, "", s.TokenStatus)
		return
	}

	if r.FormValue("grant_type") != "authorization_code" {
		http.Error(w, "unsupported grant_type", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	g, ok := s.grants[r.FormValue("code")]
	delete(s.grants, r.FormValue("code"))
	s.mu.Unlock()

	if !ok ||
		g.clientID != r.FormValue("client_id") ||
		g.redirectURI != r.FormValue("redirect_uri") ||
		g.challenge != s256(r.FormValue("code_verifier")) {
		http.Error(w, "invalid_grant", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.exchanges++
	s.mu.Unlock()

	profile := json.RawMessage(s.Profile)
	if s.Profile == "" {
		profile = json.RawMessage("null")
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": s.AccessToken,
		"token_type":   "Bearer",
		"scope":        g.scope,
		"me":           s.URL + "/",
		"profile":      profile,
	})
}

func s256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum[:]), "=")
}

// Capturer stands in for a user approving every request: Capture fetches the
// authorization URL and returns where it redirects to.
type Capturer struct {
	// Redirect is returned by RedirectURL. Defaults to
	// "https://app.example.com/callback".
	Redirect string

	// Tamper, if set, may change the query of the captured redirect.
	Tamper func(url.Values)

	// Err, if set, is returned by Capture instead of visiting the page.
	Err error

	mu       sync.Mutex
	authURLs []string
}

func (c *Capturer) RedirectURL(clientID string) (string, error) {
	if c.Redirect == "" {
		return "https://app.example.com/callback", nil
	}
	return c.Redirect, nil
}

func (c *Capturer) Capture(ctx context.Context, authURL string) (string, error) {
	c.mu.Lock()
	c.authURLs = append(c.authURLs, authURL)
	c.mu.Unlock()

	if c.Err != nil {
		return "", c.Err
	}

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return "", errors.New("authorization endpoint did not redirect")
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return "", err
	}

	if c.Tamper != nil {
		query := location.Query()
		c.Tamper(query)
		location.RawQuery = query.Encode()
	}

	return location.String(), nil
}

// AuthURLs returns the authorization URLs Capture was called with.
func (c *Capturer) AuthURLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.authURLs...)
}
