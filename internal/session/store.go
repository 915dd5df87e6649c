package session

import (
	"sync"
	"time"
)

// Storage keys, shared by every Store implementation. They match the keys the
// wallet's other clients use, so a billfold session survives tooling changes.
const (
	KeyToken       = "access_token"
	KeyProfile     = "user_data"
	KeyLastRefresh = "last_user_data_refresh"
)

// Profile is the locally cached view of the authenticated user. It carries
// only the fields the UI renders; anything else the server returns is
// dropped on write.
type Profile struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
	Avatar   string  `json:"avatar"`
	Status   string  `json:"status"`
}

// DefaultProfile is the zero-value profile returned while no session exists.
func DefaultProfile() Profile {
	return Profile{Status: "offline"}
}

// Store is the durable key-value home of the session: bearer token, cached
// profile, and last successful refresh instant. The session manager is the
// only writer; all three values are cleared together on teardown.
type Store interface {
	Token() (string, bool)
	SetToken(token string) error

	Profile() (Profile, bool)
	SetProfile(p Profile) error

	LastRefresh() (time.Time, bool)
	SetLastRefresh(t time.Time) error

	// Clear removes token, profile, and refresh timestamp atomically.
	Clear() error
}

// MemoryStore is an in-process Store, used in tests and as a fallback when
// no database is available.
type MemoryStore struct {
	mu          sync.RWMutex
	token       string
	hasToken    bool
	profile     Profile
	hasProfile  bool
	lastRefresh time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.hasToken
}

func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.hasToken = true
	return nil
}

func (s *MemoryStore) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.hasProfile
}

func (s *MemoryStore) SetProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	s.hasProfile = true
	return nil
}

func (s *MemoryStore) LastRefresh() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh, !s.lastRefresh.IsZero()
}

func (s *MemoryStore) SetLastRefresh(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefresh = t
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.hasToken = false
	s.profile = Profile{}
	s.hasProfile = false
	s.lastRefresh = time.Time{}
	return nil
}
