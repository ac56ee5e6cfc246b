// Package loopback captures the authorization redirect with an HTTP server
// listening on the local machine, for hosts like command line tools that do
// not otherwise receive HTTP requests.
package loopback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	slogctx "github.com/veqryn/slog-context"
)

// CallbackPath is the path redirects are captured on.
const CallbackPath = "/callback"

// ErrBusy is returned by Capture if another capture is waiting.
var ErrBusy = errors.New("another sign-in is waiting for its redirect")

// Capturer is an indieauth.RedirectCapturer that listens on a local address.
type Capturer struct {
	// Open is called with the authorization URL, and should show it to the
	// user.
	Open func(ctx context.Context, authURL string) error

	redirectURL string
	server      *http.Server

	mu      sync.Mutex
	waiting chan string
}

// Listen starts listening on addr, for example "127.0.0.1:0".
func Listen(addr string, open func(ctx context.Context, authURL string) error) (*Capturer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening for redirect: %w", err)
	}

	c := &Capturer{
		Open:        open,
		redirectURL: "http://" + listener.Addr().String() + CallbackPath,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, c.handleCallback)

	c.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := c.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogctx.Error(context.Background(), "redirect listener stopped", "error", err)
		}
	}()

	return c, nil
}

// Close stops listening.
func (c *Capturer) Close() error {
	return c.server.Close()
}

// RedirectURL returns the loopback URL redirects are captured on. It is the
// same for every client.
func (c *Capturer) RedirectURL(clientID string) (string, error) {
	return c.redirectURL, nil
}

// Capture opens authURL and waits for the redirect.
func (c *Capturer) Capture(ctx context.Context, authURL string) (string, error) {
	waiting := make(chan string, 1)

	c.mu.Lock()
	if c.waiting != nil {
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.waiting = waiting
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.waiting == waiting {
			c.waiting = nil
		}
		c.mu.Unlock()
	}()

	if c.Open != nil {
		if err := c.Open(ctx, authURL); err != nil {
			return "", fmt.Errorf("opening authorization page: %w", err)
		}
	}

	select {
	case result := <-waiting:
		return result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Capturer) handleCallback(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	waiting := c.waiting
	c.waiting = nil
	c.mu.Unlock()

	if waiting == nil {
		http.Error(w, "no sign-in in progress", http.StatusNotFound)
		return
	}

	result := c.redirectURL
	if r.URL.RawQuery != "" {
		result += "?" + r.URL.RawQuery
	}
	waiting <- result

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html><html><body><p>Sign-in received, you can close this window.</p></body></html>`)
}
