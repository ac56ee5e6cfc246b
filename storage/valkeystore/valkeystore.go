// Package valkeystore keeps the session in Valkey, so that a client and a
// background on different machines can share it.
package valkeystore

import (
	"context"
	"fmt"
	"strings"

	"github.com/valkey-io/valkey-go"
)

// DefaultKey is used when New is given an empty key.
const DefaultKey = "indieauth:session"

// Storage is an indieauth.Storage kept in a single Valkey hash, so that
// setting several fields or clearing them all is one command.
type Storage struct {
	valkey valkey.Client
	key    string
}

// New returns a Storage that keeps its record in the hash at key.
func New(client valkey.Client, key string) *Storage {
	key = strings.TrimSuffix(key, ":")
	if key == "" {
		key = DefaultKey
	}

	return &Storage{
		valkey: client,
		key:    key,
	}
}

func (s *Storage) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	values := map[string][]byte{}
	if len(keys) == 0 {
		return values, nil
	}

	msgs, err := s.valkey.Do(ctx, s.valkey.B().Hmget().Key(s.key).Field(keys...).Build()).ToArray()
	if err != nil {
		return nil, fmt.Errorf("executing hmget command: %w", err)
	}

	for i, msg := range msgs {
		if i >= len(keys) {
			break
		}

		data, err := msg.AsBytes()
		if valkey.IsValkeyNil(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", keys[i], err)
		}

		values[keys[i]] = data
	}

	return values, nil
}

func (s *Storage) Set(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}

	cmd := s.valkey.B().Hset().Key(s.key).FieldValue()
	for field, value := range values {
		cmd = cmd.FieldValue(field, valkey.BinaryString(value))
	}

	if err := s.valkey.Do(ctx, cmd.Build()).Error(); err != nil {
		return fmt.Errorf("executing hset command: %w", err)
	}

	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(s.key).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}
