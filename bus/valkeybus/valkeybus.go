// Package valkeybus delivers messages between a client and a background over
// Valkey pub/sub, so they can run in separate processes.
package valkeybus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valkey-io/valkey-go"
	slogctx "github.com/veqryn/slog-context"

	indieauth "hawx.me/code/indieauth-signin"
)

// DefaultChannel is used when New is given an empty channel name.
const DefaultChannel = "indieauth:messages"

// Bus is an indieauth.Channel using a Valkey pub/sub channel. Messages
// published while nothing is subscribed are lost.
type Bus struct {
	valkey  valkey.Client
	channel string
}

// New returns a Bus publishing to, and subscribing on, channel.
func New(client valkey.Client, channel string) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}

	return &Bus{
		valkey:  client,
		channel: channel,
	}
}

func (b *Bus) Send(ctx context.Context, msg indieauth.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	cmd := b.valkey.B().Publish().Channel(b.channel).Message(valkey.BinaryString(data)).Build()
	if err := b.valkey.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing publish command: %w", err)
	}

	return nil
}

// Receive subscribes to the channel until ctx is done. Messages that cannot
// be decoded are logged and dropped.
func (b *Bus) Receive(ctx context.Context) (<-chan indieauth.Message, error) {
	out := make(chan indieauth.Message)

	go func() {
		defer close(out)

		cmd := b.valkey.B().Subscribe().Channel(b.channel).Build()
		err := b.valkey.Receive(ctx, cmd, func(m valkey.PubSubMessage) {
			var msg indieauth.Message
			if err := json.Unmarshal([]byte(m.Message), &msg); err != nil {
				slogctx.Warn(ctx, "could not decode message", "channel", m.Channel, "error", err)
				return
			}

			select {
			case out <- msg:
			case <-ctx.Done():
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			slogctx.Error(ctx, "subscription ended", "channel", b.channel, "error", err)
		}
	}()

	return out, nil
}
