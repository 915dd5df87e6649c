package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"billfold/internal/api"
)

// InvalidationReason explains why the manager tore a session down on its own.
type InvalidationReason int

const (
	// ReasonAuthRejected means the server answered 401/403 to a refresh.
	ReasonAuthRejected InvalidationReason = iota
	// ReasonIdentityChanged means a refresh returned a different username
	// than the one loaded earlier in this process. The stored token belongs
	// to someone else now; all derived state must be rebuilt from scratch.
	ReasonIdentityChanged
)

// RefreshOutcome is the tri-state (plus detail) result of a refresh.
type RefreshOutcome int

const (
	// RefreshFailed is a transient error; the cached profile is kept.
	RefreshFailed RefreshOutcome = iota
	// RefreshOK means a fresh profile was fetched and cached.
	RefreshOK
	// RefreshCached means the throttle window served the cached profile.
	RefreshCached
	// RefreshNoSession means there is no token to refresh with.
	RefreshNoSession
	// RefreshInvalidated means the session was force-cleared (401/403 or
	// identity mismatch).
	RefreshInvalidated
)

// OK reports whether the caller has a usable profile after the refresh.
func (o RefreshOutcome) OK() bool {
	return o == RefreshOK || o == RefreshCached
}

// Outcome is the structured result of login-style operations; they never
// return errors so UI code can branch without wrapping.
type Outcome struct {
	Success bool
	Message string
}

// Manager is the single authority for the client's authentication state:
// it owns the bearer token, the cached profile, the refresh throttle, and
// the background refresh loop. Everything else in the program reads session
// state through it.
type Manager struct {
	client   *api.Client
	store    Store
	throttle time.Duration
	interval time.Duration
	logger   *slog.Logger

	group singleflight.Group

	mu             sync.Mutex
	loaded         bool
	loadedUsername string
	// generation is bumped on every teardown; an in-flight refresh that
	// started under an older generation discards its result instead of
	// resurrecting a cleared session.
	generation uint64
	stopTimer  context.CancelFunc

	onInvalidate func(InvalidationReason)
	onUpdate     func(Profile)
}

// NewManager creates a session manager. throttle is the minimum spacing
// between profile fetches; interval is the period of the background refresh.
func NewManager(client *api.Client, store Store, throttle, interval time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:   client,
		store:    store,
		throttle: throttle,
		interval: interval,
		logger:   logger,
	}
}

// OnInvalidate registers the callback fired when the manager force-clears the
// session. The UI uses it to drop to the login screen and, on identity
// mismatch, rebuild all views.
func (m *Manager) OnInvalidate(fn func(InvalidationReason)) {
	m.onInvalidate = fn
}

// OnUpdate registers the callback fired after each successful profile fetch.
func (m *Manager) OnUpdate(fn func(Profile)) {
	m.onUpdate = fn
}

// Token returns the stored bearer token. Implements api.TokenSource.
func (m *Manager) Token() (string, bool) {
	return m.store.Token()
}

// LoggedIn reports whether a token is stored. It says nothing about the
// token's validity server-side; that surfaces on the next refresh.
func (m *Manager) LoggedIn() bool {
	_, ok := m.store.Token()
	return ok
}

// UserData returns the cached profile, or the default profile when no
// session exists.
func (m *Manager) UserData() Profile {
	if p, ok := m.store.Profile(); ok {
		return p
	}
	return DefaultProfile()
}

// SetUserData replaces the cached profile with the tracked subset of a
// server user record.
func (m *Manager) SetUserData(u api.User) {
	if err := m.store.SetProfile(profileFrom(u)); err != nil {
		m.logger.Error("persisting profile", "error", err)
	}
}

func profileFrom(u api.User) Profile {
	return Profile{
		ID:       u.ID,
		Username: u.Username,
		Balance:  u.Balance,
		Avatar:   u.Avatar,
		Status:   u.Status,
	}
}

// Login exchanges credentials for a token, fetches the profile, and starts
// the background refresh. Failures come back as a structured outcome, never
// an error.
func (m *Manager) Login(ctx context.Context, username, password string) Outcome {
	token, err := m.client.Token(ctx, username, password)
	if err != nil {
		m.logger.Warn("login failed", "username", username, "error", err)
		return Outcome{Success: false, Message: err.Error()}
	}

	if err := m.store.SetToken(token); err != nil {
		m.logger.Error("persisting token", "error", err)
		return Outcome{Success: false, Message: "could not persist session"}
	}

	// Fresh token, fetch unconditionally. A failed first fetch is not fatal;
	// the background refresh retries.
	if outcome := m.refresh(ctx, true); !outcome.OK() {
		m.logger.Warn("initial profile fetch failed", "outcome", outcome)
	}
	m.StartAutoRefresh()
	return Outcome{Success: true, Message: "login successful"}
}

// RegisterFields is the user-supplied registration form.
type RegisterFields struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
}

// Register validates the form locally and creates the account. It does not
// log the new user in; callers follow up with Login.
func (m *Manager) Register(ctx context.Context, f RegisterFields) (*api.User, error) {
	if err := validateUserFields(f.Username, f.Password, f.Email, f.PhoneNumber); err != nil {
		return nil, err
	}
	if f.Username == "" || f.Email == "" || f.PhoneNumber == "" || f.Password == "" {
		return nil, &ValidationError{Reason: "all fields (username, email, phone_number, password) are required"}
	}

	user, err := m.client.Register(ctx, api.RegisterRequest{
		Username:    f.Username,
		Email:       f.Email,
		PhoneNumber: f.PhoneNumber,
		Password:    f.Password,
	})
	if err != nil {
		m.logger.Warn("registration rejected", "username", f.Username, "error", err)
		return nil, err
	}
	return user, nil
}

// ProfileUpdate carries the mutable account fields. Nil pointers are omitted
// from the request.
type ProfileUpdate struct {
	Email       *string
	PhoneNumber *string
	Avatar      *string
}

// UpdateProfile patches the account and merges the server's response into
// the cached profile.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) (*api.User, error) {
	if !m.LoggedIn() {
		return nil, ErrNoSession
	}

	var email, phone string
	payload := map[string]string{}
	if update.Email != nil {
		email = *update.Email
		payload["email"] = email
	}
	if update.PhoneNumber != nil {
		phone = *update.PhoneNumber
		payload["phone_number"] = phone
	}
	if update.Avatar != nil {
		payload["avatar"] = *update.Avatar
	}

	if err := validateUserFields("", "", email, phone); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, &ValidationError{Reason: "at least one field (email, phone_number, avatar) must be provided"}
	}

	user, err := m.client.UpdateMe(ctx, payload)
	if err != nil {
		return nil, err
	}
	m.SetUserData(*user)
	return user, nil
}

// Refresh synchronizes the cached profile with the server. Within the
// throttle window it answers from cache; concurrent callers share one
// in-flight request.
func (m *Manager) Refresh(ctx context.Context) RefreshOutcome {
	return m.refresh(ctx, false)
}

// RefreshOnEvent forces a refresh past the throttle. Call it after any
// action known to change server-side state, so the UI reflects the change
// immediately.
func (m *Manager) RefreshOnEvent(ctx context.Context) RefreshOutcome {
	if err := m.store.SetLastRefresh(time.Time{}); err != nil {
		m.logger.Error("clearing refresh timestamp", "error", err)
	}
	return m.refresh(ctx, true)
}

func (m *Manager) refresh(ctx context.Context, force bool) RefreshOutcome {
	if _, ok := m.store.Token(); !ok {
		// A leftover profile without a token is stale foreign data.
		m.mu.Lock()
		m.clearLocked()
		m.mu.Unlock()
		return RefreshNoSession
	}

	if !force {
		if _, ok := m.store.Profile(); ok {
			if last, ok := m.store.LastRefresh(); ok && time.Since(last) < m.throttle {
				return RefreshCached
			}
		}
	}

	v, _, _ := m.group.Do("refresh", func() (interface{}, error) {
		return m.fetchProfile(ctx), nil
	})
	return v.(RefreshOutcome)
}

// fetchProfile performs the network half of a refresh and commits the result
// if the session it started under still exists.
func (m *Manager) fetchProfile(ctx context.Context) RefreshOutcome {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	user, err := m.client.Me(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			m.logger.Info("session rejected by server, clearing")
			m.teardown(gen, ReasonAuthRejected)
			return RefreshInvalidated
		}
		m.logger.Warn("profile refresh failed", "error", err)
		return RefreshFailed
	}

	if user.Username == "" {
		m.logger.Warn("profile response missing username, ignoring")
		return RefreshFailed
	}

	m.mu.Lock()
	if gen != m.generation {
		// Logged out while the request was in flight; drop the result.
		m.mu.Unlock()
		return RefreshFailed
	}
	if m.loaded && user.Username != m.loadedUsername {
		m.mu.Unlock()
		m.logger.Warn("stored token now belongs to a different user",
			"was", m.loadedUsername, "got", user.Username)
		m.teardown(gen, ReasonIdentityChanged)
		return RefreshInvalidated
	}

	profile := profileFrom(*user)
	if err := m.store.SetProfile(profile); err != nil {
		m.mu.Unlock()
		m.logger.Error("persisting profile", "error", err)
		return RefreshFailed
	}
	if err := m.store.SetLastRefresh(time.Now()); err != nil {
		m.logger.Error("persisting refresh timestamp", "error", err)
	}
	m.loaded = true
	m.loadedUsername = user.Username
	m.mu.Unlock()

	if m.onUpdate != nil {
		m.onUpdate(profile)
	}
	return RefreshOK
}

// Logout clears all session state and stops the background refresh. It does
// not notify; the caller initiated it and decides what to show next.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.clearLocked()
	m.mu.Unlock()
}

// teardown clears the session if gen is still current, then fires the
// invalidation callback.
func (m *Manager) teardown(gen uint64, reason InvalidationReason) {
	m.mu.Lock()
	if gen == m.generation {
		m.clearLocked()
	}
	m.mu.Unlock()

	if m.onInvalidate != nil {
		m.onInvalidate(reason)
	}
}

// clearLocked wipes token, profile, and timestamp together, bumps the
// generation, and cancels the refresh timer. Callers hold m.mu.
func (m *Manager) clearLocked() {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("clearing session store", "error", err)
	}
	m.loaded = false
	m.loadedUsername = ""
	m.generation++
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}
}

// StartAutoRefresh (re)starts the periodic background refresh. Calling it
// again replaces any previous timer; at most one runs per manager.
func (m *Manager) StartAutoRefresh() {
	m.mu.Lock()
	if m.stopTimer != nil {
		m.stopTimer()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.stopTimer = cancel
	interval := m.interval
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Refresh(ctx)
			}
		}
	}()
}

// StopAutoRefresh cancels the background refresh if one is running.
func (m *Manager) StopAutoRefresh() {
	m.mu.Lock()
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}
	m.mu.Unlock()
}
