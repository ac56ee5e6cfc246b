package indieauth

import (
	"context"
	"net/http"

	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel/codes"
)

// A Revoker signs users out by revoking their access token.
type Revoker struct {
	Store  *SessionStore
	Client *http.Client
}

// SignOut revokes the stored session's access token and, if the token
// endpoint accepts that, clears the stored session. It does nothing when no
// session is stored.
func (r *Revoker) SignOut(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "indieauth.SignOut")
	defer span.End()

	err := r.signOut(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slogctx.Warn(ctx, "sign-out failed", "error", err)
	}

	return err
}

func (r *Revoker) signOut(ctx context.Context) error {
	session, ok, err := r.Store.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		slogctx.Debug(ctx, "sign-out requested without a session")
		return nil
	}

	ctx = slogctx.With(ctx, "identity_url", session.Me)

	if session.Endpoints.Token == "" {
		return ErrTokenEndpointMissing
	}

	config := &Config{Client: r.Client}
	if err := config.Revoke(ctx, session.Endpoints, session.AccessToken); err != nil {
		return err
	}

	if err := r.Store.Clear(ctx); err != nil {
		return err
	}

	slogctx.Info(ctx, "signed out")
	return nil
}
