package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"billfold/internal/session"
)

// SessionStore persists session state in the kv table. Implements
// session.Store. The profile is stored as JSON and the refresh timestamp as
// milliseconds since epoch, matching the layout the wallet's browser client
// uses in localStorage.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Token() (string, bool) {
	value, ok, err := s.db.Get(session.KeyToken)
	if err != nil || !ok || value == "" {
		return "", false
	}
	return value, true
}

func (s *SessionStore) SetToken(token string) error {
	return s.db.Put(session.KeyToken, token)
}

func (s *SessionStore) Profile() (session.Profile, bool) {
	value, ok, err := s.db.Get(session.KeyProfile)
	if err != nil || !ok {
		return session.Profile{}, false
	}
	var p session.Profile
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return session.Profile{}, false
	}
	return p, true
}

func (s *SessionStore) SetProfile(p session.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return s.db.Put(session.KeyProfile, string(data))
}

func (s *SessionStore) LastRefresh() (time.Time, bool) {
	value, ok, err := s.db.Get(session.KeyLastRefresh)
	if err != nil || !ok {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil || millis == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

func (s *SessionStore) SetLastRefresh(t time.Time) error {
	if t.IsZero() {
		return s.db.Delete(session.KeyLastRefresh)
	}
	return s.db.Put(session.KeyLastRefresh, strconv.FormatInt(t.UnixMilli(), 10))
}

// Clear removes the session keys and every cached API response derived from
// the session, so a later login as a different user cannot see leftovers.
func (s *SessionStore) Clear() error {
	if err := s.db.ClearTransactions(); err != nil {
		return err
	}
	return s.db.Delete(session.KeyToken, session.KeyProfile, session.KeyLastRefresh)
}
