package indieauth

import (
	"context"
	"time"

	slogctx "github.com/veqryn/slog-context"
)

// DefaultPollInterval is how often a Watcher checks the store.
const DefaultPollInterval = 250 * time.Millisecond

// A Watcher polls a SessionStore to find out when a sign-in or sign-out
// started elsewhere has finished.
type Watcher struct {
	Store *SessionStore

	// Interval defaults to DefaultPollInterval.
	Interval time.Duration

	// Timeout, if non-zero, stops a Watch that has not fired by then.
	Timeout time.Duration
}

// A Watch is a single poll started by a Watcher. It fires at most once.
type Watch struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Stop ends the Watch if it has not already ended. The callback will not be
// called after Stop returns, so Stop must not be called from the callback.
func (w *Watch) Stop() {
	w.cancel()
	<-w.done
}

// Done is closed when the Watch ends, whether it fired or not.
func (w *Watch) Done() <-chan struct{} {
	return w.done
}

// Err returns why the Watch ended: nil if it fired, ErrWatchTimeout if it
// timed out, or the context's error if stopped. It is only valid after Done
// is closed.
func (w *Watch) Err() error {
	return w.err
}

// Wait blocks until the Watch ends or ctx is done.
func (w *Watch) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WatchSignIn calls fn with the stored session once one is present.
func (w *Watcher) WatchSignIn(ctx context.Context, fn func(Session)) *Watch {
	return w.watch(ctx, func(session Session, ok bool) bool {
		if ok {
			fn(session)
		}
		return ok
	})
}

// WatchSignOut calls fn once no session is stored.
func (w *Watcher) WatchSignOut(ctx context.Context, fn func()) *Watch {
	return w.watch(ctx, func(_ Session, ok bool) bool {
		if !ok {
			fn()
		}
		return !ok
	})
}

func (w *Watcher) watch(ctx context.Context, check func(Session, bool) bool) *Watch {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var cancel context.CancelFunc
	if w.Timeout > 0 {
		ctx, cancel = context.WithTimeoutCause(ctx, w.Timeout, ErrWatchTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	watch := &Watch{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(watch.done)
		defer cancel()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				watch.err = context.Cause(ctx)
				return
			case <-ticker.C:
			}

			session, ok, err := w.Store.Load(ctx)
			if err != nil {
				slogctx.Warn(ctx, "could not check session", "error", err)
				continue
			}

			if ctx.Err() != nil {
				watch.err = context.Cause(ctx)
				return
			}

			if check(session, ok) {
				return
			}
		}
	}()

	return watch
}
