package main

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	indieauth "hawx.me/code/indieauth-signin"
	"hawx.me/code/indieauth-signin/capture/webcapture"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
  <head><title>IndieAuth</title></head>
  <body>
    {{ if .SignedIn }}
      <p>Signed in as <a href="{{ .Session.Me }}">{{ .Session.Me }}</a></p>
      <form action="/sign-out" method="post"><button type="submit">Sign-out</button></form>
    {{ else }}
      <form action="/sign-in" method="post">
        <label for="me">Your URL:</label>
        <input id="me" name="me" placeholder="e.g. https://example.com" />
        <button type="submit">Sign-in</button>
      </form>
    {{ end }}
  </body>
</html>`))

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve a web page for signing in and out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if cfg.Web.CookieSecret == "" {
				return oops.In("serve").Errorf("web.cookieSecret is required, as 32 or 64 base64 encoded bytes")
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			baseURL := strings.TrimSuffix(cfg.Web.BaseURL, "/")
			clientID := cfg.ClientID
			if clientID == "" {
				clientID = baseURL + "/"
			}

			capturer, err := webcapture.New(cfg.Web.CookieSecret, baseURL+"/callback")
			if err != nil {
				return oops.In("serve").Wrapf(err, "creating redirect capture")
			}

			_, stop := a.runBackground(ctx, a.background(capturer))
			defer stop()

			client := a.newClient(indieauth.ObserverFuncs{
				OnSignIn: func(session indieauth.Session) {
					slogctx.Info(ctx, "sign-in complete", "me", session.Me)
				},
				OnSignOut: func() {
					slogctx.Info(ctx, "sign-out complete")
				},
			})
			defer client.Close()

			server := &http.Server{
				Addr:              cfg.Web.Addr,
				Handler:           newServeMux(client, capturer, clientID),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			slogctx.Info(ctx, "listening", "addr", cfg.Web.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return oops.In("serve").Wrapf(err, "serving")
			}

			return nil
		},
	}
}

func newServeMux(client *indieauth.Client, capturer *webcapture.Capturer, clientID string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		session, ok, err := client.GetUser(r.Context())
		if err != nil {
			slogctx.Error(r.Context(), "could not read session", "error", err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = pageTmpl.Execute(w, struct {
			SignedIn bool
			Session  indieauth.Session
		}{ok, session})
	})

	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		session, ok, err := client.GetUser(r.Context())
		if err != nil {
			slogctx.Error(r.Context(), "could not read session", "error", err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_, _ = w.Write([]byte("{}\n"))
			return
		}
		_ = json.NewEncoder(w).Encode(session)
	})

	mux.HandleFunc("POST /sign-in", func(w http.ResponseWriter, r *http.Request) {
		me := r.FormValue("me")
		if me == "" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		if _, err := client.SignIn(r.Context(), me, clientID); err != nil {
			slogctx.Error(r.Context(), "could not start sign-in", "error", err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/authorize", http.StatusSeeOther)
	})

	mux.HandleFunc("POST /sign-out", func(w http.ResponseWriter, r *http.Request) {
		if _, err := client.SignOut(r.Context()); err != nil {
			slogctx.Error(r.Context(), "could not start sign-out", "error", err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	mux.Handle("GET /authorize", capturer.Authorize())
	mux.Handle("GET /callback", capturer.Callback())

	return mux
}
