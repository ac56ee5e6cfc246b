package indieauth

import (
	"context"
	"sync"
)

// Client is used by whatever the user interacts with to start signing in or
// out. It sends the request to a Background over a Channel, then watches the
// store to tell an Observer when the request has completed.
type Client struct {
	channel  Channel
	store    *SessionStore
	watcher  *Watcher
	observer Observer

	mu       sync.Mutex
	signIn   *Watch
	signOut  *Watch
	closeCtx context.Context
	closeFn  context.CancelFunc
}

// NewClient creates a Client. The watcher must poll the same store.
func NewClient(channel Channel, store *SessionStore, watcher *Watcher, observer Observer) *Client {
	if watcher == nil {
		watcher = &Watcher{Store: store}
	}
	if observer == nil {
		observer = ObserverFuncs{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		channel:  channel,
		store:    store,
		watcher:  watcher,
		observer: observer,
		closeCtx: ctx,
		closeFn:  cancel,
	}
}

// SignIn asks the background to sign in identityURL. It returns once the
// request is sent; the observer's SignInComplete is called when a session
// appears. The returned Watch can be used to wait for that, or to give up.
func (c *Client) SignIn(ctx context.Context, identityURL, clientID string) (*Watch, error) {
	return c.start(ctx, &c.signIn, Message{
		Action: ActionSignIn,
		Details: &MessageDetails{
			IdentityURL: identityURL,
			ClientID:    clientID,
		},
	}, func() *Watch {
		return c.watcher.WatchSignIn(c.closeCtx, c.observer.SignInComplete)
	})
}

// SignOut asks the background to sign out. It returns once the request is
// sent; the observer's SignOutComplete is called when the session is gone.
func (c *Client) SignOut(ctx context.Context) (*Watch, error) {
	return c.start(ctx, &c.signOut, Message{Action: ActionSignOut}, func() *Watch {
		return c.watcher.WatchSignOut(c.closeCtx, c.observer.SignOutComplete)
	})
}

// start replaces the watch in slot with a new one, then sends msg. The lock is
// not held while sending, and Close abandons a send that is still waiting.
func (c *Client) start(ctx context.Context, slot **Watch, msg Message, newWatch func() *Watch) (*Watch, error) {
	c.mu.Lock()
	if *slot != nil {
		(*slot).Stop()
	}
	watch := newWatch()
	*slot = watch
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.closeCtx, cancel)
	defer stop()

	if err := c.channel.Send(ctx, msg); err != nil {
		c.mu.Lock()
		if *slot == watch {
			*slot = nil
		}
		c.mu.Unlock()

		watch.Stop()
		return nil, err
	}

	return watch, nil
}

// GetUser returns the current session, if there is one.
func (c *Client) GetUser(ctx context.Context) (Session, bool, error) {
	return c.store.Load(ctx)
}

// Close stops any running watches. Observers will not be called after Close
// returns.
func (c *Client) Close() {
	c.closeFn()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, watch := range []*Watch{c.signIn, c.signOut} {
		if watch != nil {
			<-watch.Done()
		}
	}
}
