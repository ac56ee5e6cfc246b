// Package localbus delivers messages between a client and a background
// running in the same process.
package localbus

import (
	"context"
	"errors"
	"sync"

	indieauth "hawx.me/code/indieauth-signin"
)

// ErrReceiving is returned if Receive is called while another receiver is
// active.
var ErrReceiving = errors.New("bus already has a receiver")

// Bus is an indieauth.Channel backed by a Go channel. Messages sent when
// nothing is receiving are queued, up to the buffer size given to New.
type Bus struct {
	mu        sync.Mutex
	msgs      chan indieauth.Message
	receiving bool
}

// New creates a Bus that queues up to size messages.
func New(size int) *Bus {
	return &Bus{msgs: make(chan indieauth.Message, size)}
}

func (b *Bus) Send(ctx context.Context, msg indieauth.Message) error {
	select {
	case b.msgs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the messages sent to the Bus until ctx is done. Only one
// receiver may be active at a time.
func (b *Bus) Receive(ctx context.Context) (<-chan indieauth.Message, error) {
	b.mu.Lock()
	if b.receiving {
		b.mu.Unlock()
		return nil, ErrReceiving
	}
	b.receiving = true
	b.mu.Unlock()

	out := make(chan indieauth.Message)

	go func() {
		defer func() {
			b.mu.Lock()
			b.receiving = false
			b.mu.Unlock()
			close(out)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-b.msgs:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
