package indieauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"hawx.me/code/assert"
)

func TestAuthCodeURL(t *testing.T) {
	assert := assert.Wrap(t)

	config := &Config{
		ClientID:    "https://example.com/",
		RedirectURL: "https://example.com/callback",
		Scopes:      []string{"create", "update"},
	}

	authURL, err := config.AuthCodeURL(
		Endpoints{Authorization: "https://auth.example.com/authorize"},
		"state123",
		"challenge456",
		"S256",
		"https://me.example.com/",
	)
	assert(err).Must.Nil()

	assert(authURL).Equal("https://auth.example.com/authorize?" +
		"client_id=https%3A%2F%2Fexample.com%2F" +
		"&code_challenge=challenge456" +
		"&code_challenge_method=S256" +
		"&me=https%3A%2F%2Fme.example.com%2F" +
		"&redirect_uri=https%3A%2F%2Fexample.com%2Fcallback" +
		"&response_type=code" +
		"&scope=create+update" +
		"&state=state123")
}

func TestAuthCodeURLKeepsExistingQuery(t *testing.T) {
	assert := assert.Wrap(t)

	config := &Config{ClientID: "https://example.com/", RedirectURL: "https://example.com/callback"}

	authURL, err := config.AuthCodeURL(
		Endpoints{Authorization: "https://auth.example.com/authorize?site=1"},
		"state", "challenge", "S256", "",
	)
	assert(err).Must.Nil()

	u, _ := url.Parse(authURL)
	assert(u.Query().Get("site")).Equal("1")
	assert(u.Query().Has("me")).Equal(false)
	assert(u.Query().Has("scope")).Equal(false)
}

func TestExchange(t *testing.T) {
	assert := assert.Wrap(t)

	var form url.Values
	var accept string

	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		accept = r.Header.Get("Accept")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
  "access_token": "XXXXXX",
  "token_type": "Bearer",
  "scope": "create update delete",
  "me": "https://user.example.net/",
  "profile": {
    "name": "Example User",
    "url": "https://user.example.net/",
    "photo": "https://user.example.net/photo.jpg"
  }
}`))
	}))
	defer tokenEndpoint.Close()

	config := &Config{
		ClientID:    "https://example.com/",
		RedirectURL: "https://example.com/callback",
	}

	token, err := config.Exchange(context.Background(), Endpoints{Token: tokenEndpoint.URL}, "abcde", "verifier")
	assert(err).Must.Nil()

	assert(form.Get("grant_type")).Equal("authorization_code")
	assert(form.Get("code")).Equal("abcde")
	assert(form.Get("client_id")).Equal("https://example.com/")
	assert(form.Get("redirect_uri")).Equal("https://example.com/callback")
	assert(form.Get("code_verifier")).Equal("verifier")
	assert(accept).Equal("application/json")

	assert(token.AccessToken).Equal("XXXXXX")
	assert(token.TokenType).Equal("Bearer")
	assert(token.Scopes).Equal([]string{"create", "update", "delete"})
	assert(token.HasScope("update")).True()
	assert(token.HasScope("media")).Equal(false)
	assert(token.Me).Equal("https://user.example.net/")
	assert(token.Profile.Name).Equal("Example User")
	assert(token.Profile.Photo).Equal("https://user.example.net/photo.jpg")
}

func TestExchangeRejected(t *testing.T) {
	assert := assert.Wrap(t)

	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenEndpoint.Close()

	token, err := (&Config{}).Exchange(context.Background(), Endpoints{Token: tokenEndpoint.URL}, "abcde", "verifier")

	assert(token == nil).True()
	assert(errors.Is(err, ErrTokenExchangeRejected)).True()

	var requestErr *RequestError
	assert(errors.As(err, &requestErr)).True()
	assert(requestErr.StatusCode).Equal(http.StatusBadRequest)
	assert(requestErr.MediaType).Equal("application/json")
	assert(string(requestErr.Body)).Equal(`{"error":"invalid_grant"}`)
}

func TestExchangeBadResponse(t *testing.T) {
	assert := assert.Wrap(t)

	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer tokenEndpoint.Close()

	_, err := (&Config{}).Exchange(context.Background(), Endpoints{Token: tokenEndpoint.URL}, "abcde", "verifier")

	assert(errors.Is(err, ErrTokenExchangeRejected)).True()
}

func TestRevoke(t *testing.T) {
	assert := assert.Wrap(t)

	var form url.Values

	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
	}))
	defer tokenEndpoint.Close()

	err := (&Config{}).Revoke(context.Background(), Endpoints{Token: tokenEndpoint.URL}, "tok123")
	assert(err).Must.Nil()

	assert(form).Equal(url.Values{
		"action": {"revoke"},
		"token":  {"tok123"},
	})
}

func TestRevokeRejected(t *testing.T) {
	assert := assert.Wrap(t)

	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer tokenEndpoint.Close()

	err := (&Config{}).Revoke(context.Background(), Endpoints{Token: tokenEndpoint.URL}, "tok123")

	assert(errors.Is(err, ErrRevocationRejected)).True()
}

func TestExchangeLooseOptionalFields(t *testing.T) {
	testCases := map[string]struct {
		body      string
		expiresIn int
		me        string
	}{
		"string expires_in": {
			body:      `{"access_token":"tok","profile":"https://me.example/","expires_in":"3600"}`,
			expiresIn: 3600,
		},
		"number expires_in": {
			body:      `{"access_token":"tok","profile":"https://me.example/","expires_in":3600,"me":"https://me.example/"}`,
			expiresIn: 3600,
			me:        "https://me.example/",
		},
		"odd types": {
			body: `{"access_token":"tok","profile":"https://me.example/","expires_in":"soon","scope":["create"],"me":null}`,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert := assert.Wrap(t)

			tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer tokenEndpoint.Close()

			token, err := (&Config{}).Exchange(context.Background(), Endpoints{Token: tokenEndpoint.URL}, "abcde", "verifier")
			assert(err).Must.Nil()

			assert(token.AccessToken).Equal("tok")
			assert(token.Profile.URL).Equal("https://me.example/")
			assert(token.ExpiresIn).Equal(tc.expiresIn)
			assert(token.Me).Equal(tc.me)
		})
	}
}
