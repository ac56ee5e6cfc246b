// Package webcapture captures the authorization redirect in a web
// application. The browser is sent to the authorization endpoint by the
// Authorize handler and comes back to the Callback handler; a cookie ties the
// two together so a redirect is only accepted from the browser that was sent.
package webcapture

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	slogctx "github.com/veqryn/slog-context"

	indieauth "hawx.me/code/indieauth-signin"
)

const (
	cookieName = "indieauth-capture"
	captureKey = "capture"
)

// ErrNoCapture is returned by Capture if no browser came to collect the
// authorization URL.
var ErrNoCapture = errors.New("no browser collected the authorization url")

type capture struct {
	id      string
	authURL string
	result  chan string
}

// Capturer is an indieauth.RedirectCapturer for web applications.
type Capturer struct {
	// Root is where the browser is sent after the callback. Defaults to "/".
	Root string

	// Wait is how long Authorize waits for a sign-in to ask for a capture, and
	// how long Capture waits for a browser to collect it. Defaults to 10s.
	Wait time.Duration

	store       sessions.Store
	redirectURL string

	ready chan *capture

	mu      sync.Mutex
	pending map[string]*capture
}

// New creates a Capturer. The secret should be 32 or 64 bytes base64 encoded,
// and redirectURL must route to the Callback handler.
func New(secret, redirectURL string) (*Capturer, error) {
	byteSecret, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(byteSecret)
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	return &Capturer{
		Root:        "/",
		Wait:        10 * time.Second,
		store:       store,
		redirectURL: redirectURL,
		ready:       make(chan *capture),
		pending:     map[string]*capture{},
	}, nil
}

func (c *Capturer) RedirectURL(clientID string) (string, error) {
	return c.redirectURL, nil
}

// Capture hands authURL to the next request to Authorize, then waits for that
// browser to reach Callback.
func (c *Capturer) Capture(ctx context.Context, authURL string) (string, error) {
	id, err := indieauth.GenerateCode(32)
	if err != nil {
		return "", err
	}

	pending := &capture{id: id, authURL: authURL, result: make(chan string, 1)}

	c.mu.Lock()
	c.pending[id] = pending
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	select {
	case c.ready <- pending:
	case <-time.After(c.Wait):
		return "", ErrNoCapture
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case result := <-pending.result:
		return result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Authorize should be requested by the browser after starting a sign-in. It
// redirects to the authorization endpoint.
func (c *Capturer) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pending *capture

		select {
		case pending = <-c.ready:
		case <-time.After(c.Wait):
			http.Error(w, "no sign-in in progress", http.StatusGatewayTimeout)
			return
		case <-r.Context().Done():
			return
		}

		session, _ := c.store.Get(r, cookieName)
		session.Values[captureKey] = pending.id
		if err := session.Save(r, w); err != nil {
			slogctx.Error(r.Context(), "could not save capture cookie", "error", err)
			http.Error(w, "could not start sign-in", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, pending.authURL, http.StatusFound)
	}
}

// Callback should be routed to at the redirect URL.
func (c *Capturer) Callback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := c.store.Get(r, cookieName)
		id, _ := session.Values[captureKey].(string)

		c.mu.Lock()
		pending, ok := c.pending[id]
		if ok {
			delete(c.pending, id)
		}
		c.mu.Unlock()

		if !ok {
			http.Error(w, "no sign-in in progress", http.StatusBadRequest)
			return
		}

		result := c.redirectURL
		if r.URL.RawQuery != "" {
			result += "?" + r.URL.RawQuery
		}
		pending.result <- result

		delete(session.Values, captureKey)
		if err := session.Save(r, w); err != nil {
			slogctx.Warn(r.Context(), "could not clear capture cookie", "error", err)
		}

		http.Redirect(w, r, c.Root, http.StatusFound)
	}
}
