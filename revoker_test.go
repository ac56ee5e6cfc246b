package indieauth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"hawx.me/code/assert"
	"hawx.me/code/indieauth-signin/internal/testsite"
	"hawx.me/code/indieauth-signin/storage/memstore"
)

func TestSignOut(t *testing.T) {
	assert := assert.Wrap(t)
	ctx := context.Background()

	site := testsite.New()
	defer site.Close()

	store := NewSessionStore(memstore.New())
	assert(store.Save(ctx, Session{
		Me:          site.URL + "/",
		Endpoints:   Endpoints{Authorization: site.URL + "/auth", Token: site.URL + "/token"},
		AccessToken: "tok123",
	})).Must.Nil()

	revoker := &Revoker{Store: store, Client: site.Client()}
	assert(revoker.SignOut(ctx)).Must.Nil()

	assert(site.Revocations()).Equal([]string{"tok123"})

	_, ok, err := store.Load(ctx)
	assert(err).Must.Nil()
	assert(ok).Equal(false)
}

func TestSignOutWithoutSession(t *testing.T) {
	assert := assert.Wrap(t)
	ctx := context.Background()

	site := testsite.New()
	defer site.Close()

	revoker := &Revoker{Store: NewSessionStore(memstore.New()), Client: site.Client()}

	assert(revoker.SignOut(ctx)).Must.Nil()
	assert(revoker.SignOut(ctx)).Must.Nil()

	assert(site.Revocations()).Len(0)
	assert(site.HomeHits()).Equal(0)
}

func TestSignOutRejected(t *testing.T) {
	assert := assert.Wrap(t)
	ctx := context.Background()

	site := testsite.New()
	defer site.Close()
	site.RevokeStatus = http.StatusUnauthorized

	store := NewSessionStore(memstore.New())
	assert(store.Save(ctx, Session{
		Me:          site.URL + "/",
		Endpoints:   Endpoints{Token: site.URL + "/token"},
		AccessToken: "tok123",
	})).Must.Nil()

	revoker := &Revoker{Store: store, Client: site.Client()}

	err := revoker.SignOut(ctx)
	assert(errors.Is(err, ErrRevocationRejected)).True()

	session, ok, err := store.Load(ctx)
	assert(err).Must.Nil()
	assert(ok).True()
	assert(session.AccessToken).Equal("tok123")
}

func TestSignOutMissingTokenEndpoint(t *testing.T) {
	assert := assert.Wrap(t)
	ctx := context.Background()

	store := NewSessionStore(memstore.New())
	assert(store.Save(ctx, Session{Me: "https://me.example.com/", AccessToken: "tok123"})).Must.Nil()

	err := (&Revoker{Store: store}).SignOut(ctx)
	assert(errors.Is(err, ErrTokenEndpointMissing)).True()

	_, ok, _ := store.Load(ctx)
	assert(ok).True()
}
