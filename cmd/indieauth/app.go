package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/valkey-io/valkey-go"
	slogctx "github.com/veqryn/slog-context"

	indieauth "hawx.me/code/indieauth-signin"
	"hawx.me/code/indieauth-signin/bus/localbus"
	"hawx.me/code/indieauth-signin/bus/valkeybus"
	"hawx.me/code/indieauth-signin/internal/config"
	"hawx.me/code/indieauth-signin/storage/memstore"
	"hawx.me/code/indieauth-signin/storage/sqlitestore"
	"hawx.me/code/indieauth-signin/storage/valkeystore"
)

// app holds everything built from the configuration that commands share.
type app struct {
	cfg     config.Config
	client  *http.Client
	store   *indieauth.SessionStore
	channel indieauth.Channel
	closers []func() error
}

func newApp(cfg config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTP.Timeout},
	}

	var valkeyClient valkey.Client
	if cfg.Storage.Backend == config.StorageValkey || cfg.Channel == config.ChannelValkey {
		c, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: cfg.Valkey.Addresses,
			Username:    cfg.Valkey.Username,
			Password:    cfg.Valkey.Password,
		})
		if err != nil {
			return nil, oops.In("app").Wrapf(err, "connecting to valkey")
		}
		valkeyClient = c
		a.closers = append(a.closers, func() error {
			c.Close()
			return nil
		})
	}

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		a.store = indieauth.NewSessionStore(memstore.New())

	case config.StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o700); err != nil {
			a.close()
			return nil, oops.In("app").Wrapf(err, "creating storage directory")
		}
		storage, err := sqlitestore.Open(cfg.Storage.Path, sqlitestore.DefaultNamespace)
		if err != nil {
			a.close()
			return nil, oops.In("app").Wrapf(err, "opening storage")
		}
		a.store = indieauth.NewSessionStore(storage)
		a.closers = append(a.closers, storage.Close)

	case config.StorageValkey:
		a.store = indieauth.NewSessionStore(valkeystore.New(valkeyClient, cfg.Valkey.Key))

	default:
		a.close()
		return nil, oops.In("app").Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	switch cfg.Channel {
	case config.ChannelValkey:
		a.channel = valkeybus.New(valkeyClient, cfg.Valkey.Channel)
	default:
		a.channel = localbus.New(8)
	}

	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slogctx.Warn(context.Background(), "error while closing", "error", err)
		}
	}
}

func (a *app) isLocal() bool {
	return a.cfg.Channel != config.ChannelValkey
}

// background builds the part that performs flows. If capturer is nil it can
// only sign out.
func (a *app) background(capturer indieauth.RedirectCapturer) *indieauth.Background {
	b := &indieauth.Background{
		Revoker: &indieauth.Revoker{
			Store:  a.store,
			Client: a.client,
		},
	}

	if capturer != nil {
		b.Authorizer = &indieauth.Authorizer{
			Resolver: &indieauth.Resolver{Client: a.client},
			Capturer: capturer,
			Store:    a.store,
			Client:   a.client,
		}
	}

	return b
}

func (a *app) newClient(observer indieauth.Observer) *indieauth.Client {
	return indieauth.NewClient(a.channel, a.store, &indieauth.Watcher{
		Store:    a.store,
		Interval: a.cfg.Watch.Interval,
		Timeout:  a.cfg.Watch.Timeout,
	}, observer)
}

// runBackground serves b in a goroutine. Failures are sent on the returned
// channel; stop cancels serving and waits for it to finish.
func (a *app) runBackground(ctx context.Context, b *indieauth.Background) (failed <-chan error, stop func()) {
	errs := make(chan error, 1)
	b.Failed = func(_ indieauth.Message, err error) {
		select {
		case errs <- err:
		default:
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := b.Serve(ctx, a.channel); err != nil {
			slogctx.Error(ctx, "background stopped", "error", err)
		}
	}()

	return errs, func() {
		cancel()
		<-done
	}
}

// waitFor waits for watch to fire, a flow to fail, or ctx to end.
func waitFor(ctx context.Context, watch *indieauth.Watch, failed <-chan error) error {
	select {
	case <-watch.Done():
		if err := watch.Err(); err != nil {
			if errors.Is(err, indieauth.ErrWatchTimeout) {
				return fmt.Errorf("gave up waiting: %w", err)
			}
			return err
		}
		return nil
	case err := <-failed:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
