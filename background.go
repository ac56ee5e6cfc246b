package indieauth

import (
	"context"
	"sync"

	slogctx "github.com/veqryn/slog-context"
)

// Background acts on the Messages sent by Clients. It is the only thing that
// talks to the authorization and token endpoints.
type Background struct {
	Authorizer *Authorizer
	Revoker    *Revoker

	// Failed, if set, is called when a flow started for a Message fails. It is
	// for hosts where the sender can be reached directly; otherwise failures
	// are only logged.
	Failed func(msg Message, err error)

	wg sync.WaitGroup
}

// Serve receives from channel until ctx is done, starting a flow for each
// Message. Serve waits for started flows to return before returning.
func (b *Background) Serve(ctx context.Context, channel Channel) error {
	msgs, err := channel.Receive(ctx)
	if err != nil {
		return err
	}
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.Handle(ctx, msg)
		}
	}
}

// Handle starts the flow for msg without waiting for it to finish.
func (b *Background) Handle(ctx context.Context, msg Message) {
	switch msg.Action {
	case ActionSignIn:
		if b.Authorizer == nil {
			slogctx.Warn(ctx, "sign-in message received but sign-in is not available")
			return
		}
		if msg.Details == nil {
			slogctx.Warn(ctx, "sign-in message without details")
			return
		}
		details := *msg.Details

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if _, err := b.Authorizer.SignIn(ctx, details.IdentityURL, details.ClientID); err != nil {
				b.fail(msg, err)
			}
		}()

	case ActionSignOut:
		if b.Revoker == nil {
			slogctx.Warn(ctx, "sign-out message received but sign-out is not available")
			return
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := b.Revoker.SignOut(ctx); err != nil {
				b.fail(msg, err)
			}
		}()

	default:
		slogctx.Warn(ctx, "unknown message", "action", msg.Action)
	}
}

func (b *Background) fail(msg Message, err error) {
	if b.Failed != nil {
		b.Failed(msg, err)
	}
}

// Wait blocks until every flow started by Handle has returned.
func (b *Background) Wait() {
	b.wg.Wait()
}
