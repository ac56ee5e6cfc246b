package indieauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultScopes are requested when signing in.
var DefaultScopes = []string{"create", "draft", "update", "delete", "media", "profile", "email"}

// Config defines a client for authorizing users to perform a set of defined
// actions.
type Config struct {
	ClientID    string
	RedirectURL string
	Scopes      []string
	Client      *http.Client
}

func (c *Config) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}

	return http.DefaultClient
}

// AuthCodeURL returns a URL to the authorization endpoint.
func (c *Config) AuthCodeURL(endpoints Endpoints, state, codeChallenge, method, me string) (string, error) {
	authURL, err := url.Parse(endpoints.Authorization)
	if err != nil {
		return "", err
	}

	form := authURL.Query()
	form.Set("response_type", "code")
	form.Set("client_id", c.ClientID)
	form.Set("redirect_uri", c.RedirectURL)
	form.Set("state", state)
	form.Set("code_challenge", codeChallenge)
	form.Set("code_challenge_method", method)

	if len(c.Scopes) > 0 {
		form.Set("scope", strings.Join(c.Scopes, " "))
	}

	if me != "" {
		form.Set("me", me)
	}

	authURL.RawQuery = form.Encode()
	return authURL.String(), nil
}

// Exchange converts an authorization code into a token. The code will be in
// the query string of the redirect, before calling this method ensure the
// state parameter matches the value used for AuthCodeURL.
func (c *Config) Exchange(ctx context.Context, endpoints Endpoints, code, codeVerifier string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.ClientID},
		"redirect_uri":  {c.RedirectURL},
		"code_verifier": {codeVerifier},
	}

	resp, err := c.post(ctx, endpoints.Token, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchangeRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchangeRejected, readRequestError(resp))
	}

	var data struct {
		AccessToken  string          `json:"access_token"`
		TokenType    json.RawMessage `json:"token_type"`
		Scope        json.RawMessage `json:"scope"`
		Me           json.RawMessage `json:"me"`
		Profile      Profile         `json:"profile"`
		ExpiresIn    json.RawMessage `json:"expires_in"`
		RefreshToken json.RawMessage `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchangeRejected, err)
	}

	return &Token{
		AccessToken:  data.AccessToken,
		TokenType:    rawString(data.TokenType),
		Scopes:       strings.Fields(rawString(data.Scope)),
		Me:           rawString(data.Me),
		Profile:      data.Profile,
		ExpiresIn:    rawInt(data.ExpiresIn),
		RefreshToken: rawString(data.RefreshToken),
	}, nil
}

// Revoke asks the token endpoint to revoke accessToken.
func (c *Config) Revoke(ctx context.Context, endpoints Endpoints, accessToken string) error {
	form := url.Values{
		"action": {"revoke"},
		"token":  {accessToken},
	}

	resp, err := c.post(ctx, endpoints.Token, form)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRevocationRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w", ErrRevocationRejected, readRequestError(resp))
	}

	return nil
}

// rawString and rawInt read optional response fields, giving the zero value
// when a field is missing or of an unexpected type.
func rawString(data json.RawMessage) string {
	var s string
	if json.Unmarshal(data, &s) != nil {
		return ""
	}
	return s
}

func rawInt(data json.RawMessage) int {
	// json.Number also accepts a number sent as a string, like "3600".
	var n json.Number
	if json.Unmarshal(data, &n) != nil {
		return 0
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0
	}
	return i
}

func (c *Config) post(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	return c.client().Do(req)
}

func readRequestError(resp *http.Response) *RequestError {
	mediatype, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	return &RequestError{
		StatusCode: resp.StatusCode,
		MediaType:  mediatype,
		Body:       data,
	}
}
