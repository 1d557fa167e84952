package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/docaidkit/medkit/internal/domain/session"
	"github.com/docaidkit/medkit/internal/observability"
	"github.com/docaidkit/medkit/internal/storage"
)

var ErrNoSession = errors.New("no active session")

// SessionsStore holds the single active session under the "auth" key.
// Presence of the record is the sole authentication signal; there is no
// TTL and no refresh.
type SessionsStore struct {
	st   storage.Storage
	prom *observability.Prom
}

func NewSessionsStore(st storage.Storage, prom *observability.Prom) *SessionsStore {
	return &SessionsStore{st: st, prom: prom}
}

func (s *SessionsStore) observe(op string, fn func() error) error {
	if s.prom != nil {
		return s.prom.ObserveStore(op, fn)
	}
	return fn()
}

func (s *SessionsStore) Current(ctx context.Context) (session.Session, error) {
	var raw []byte

	err := s.observe("session.get", func() error {
		var err error
		raw, err = s.st.Get(ctx, storage.KeyAuth)
		return err
	})

	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return session.Session{}, ErrNoSession
		}
		return session.Session{}, err
	}

	var sess session.Session

	if err := json.Unmarshal(raw, &sess); err != nil {
		return session.Session{}, ErrNoSession
	}

	return sess, nil
}

func (s *SessionsStore) Set(ctx context.Context, sess session.Session) error {
	raw, err := json.Marshal(sess)

	if err != nil {
		return err
	}

	return s.observe("session.set", func() error {
		return s.st.Set(ctx, storage.KeyAuth, raw)
	})
}

func (s *SessionsStore) Clear(ctx context.Context) error {
	return s.observe("session.clear", func() error {
		return s.st.Remove(ctx, storage.KeyAuth)
	})
}
