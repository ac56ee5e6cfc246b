package indieauth

import (
	"context"
	"encoding/json"
	"fmt"
)

// Storage is durable key-value storage shared by everything that reads or
// writes the session. Set must write all of the given values or none of them,
// and Clear must remove every key it holds.
type Storage interface {
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, values map[string][]byte) error
	Clear(ctx context.Context) error
}

// SessionStore reads and writes a Session as a flat record in Storage.
type SessionStore struct {
	storage Storage
}

// NewSessionStore creates a SessionStore backed by storage.
func NewSessionStore(storage Storage) *SessionStore {
	return &SessionStore{storage: storage}
}

// Load returns the stored Session. The bool is false when no session is
// stored; a record with only some of its keys returns ErrPartialSession.
func (s *SessionStore) Load(ctx context.Context) (Session, bool, error) {
	var session Session

	values, err := s.storage.Get(ctx, SessionKeys)
	if err != nil {
		return session, false, fmt.Errorf("reading session: %w", err)
	}

	if len(values) == 0 {
		return session, false, nil
	}
	if len(values) != len(SessionKeys) {
		return session, false, ErrPartialSession
	}

	fields := map[string]any{
		keyMe:           &session.Me,
		keyProfile:      &session.Profile,
		keyEndpoints:    &session.Endpoints,
		keyCode:         &session.Code,
		keyAccessToken:  &session.AccessToken,
		keyExpiresIn:    &session.ExpiresIn,
		keyRefreshToken: &session.RefreshToken,
	}

	for key, into := range fields {
		if err := json.Unmarshal(values[key], into); err != nil {
			return Session{}, false, fmt.Errorf("decoding session %s: %w", key, err)
		}
	}

	return session, true, nil
}

// Save replaces any stored session with session.
func (s *SessionStore) Save(ctx context.Context, session Session) error {
	fields := map[string]any{
		keyMe:           session.Me,
		keyProfile:      session.Profile,
		keyEndpoints:    session.Endpoints,
		keyCode:         session.Code,
		keyAccessToken:  session.AccessToken,
		keyExpiresIn:    session.ExpiresIn,
		keyRefreshToken: session.RefreshToken,
	}

	values := make(map[string][]byte, len(fields))
	for key, v := range fields {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding session %s: %w", key, err)
		}
		values[key] = data
	}

	if err := s.storage.Set(ctx, values); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}

	return nil
}

// Clear removes the stored session.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}
