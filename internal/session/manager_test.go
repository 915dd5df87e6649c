package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billfold/internal/api"
)

func newTestManager(t *testing.T, handler http.Handler) (*Manager, *MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL+"/api/v1", 5*time.Second)
	store := NewMemoryStore()
	m := NewManager(client, store, 5*time.Minute, time.Hour, slog.New(slog.DiscardHandler))
	client.SetTokenSource(m)
	t.Cleanup(m.StopAutoRefresh)
	return m, store
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// walletHandler mocks the identity endpoints: a fixed token and a
// configurable /users/me response.
type walletHandler struct {
	mu       sync.Mutex
	meCalls  int
	meStatus int
	meBody   interface{}
	meDelay  time.Duration
	allCalls int32
}

func (h *walletHandler) setMe(status int, body interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.meStatus = status
	h.meBody = body
}

func (h *walletHandler) meCallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.meCalls
}

func (h *walletHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&h.allCalls, 1)
	switch r.URL.Path {
	case "/api/v1/users/token":
		if err := r.ParseForm(); err != nil || r.PostFormValue("username") == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "missing credentials"})
			return
		}
		if r.PostFormValue("password") == "wrong" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok123", "token_type": "bearer"})
	case "/api/v1/users/me":
		h.mu.Lock()
		h.meCalls++
		status, body, delay := h.meStatus, h.meBody, h.meDelay
		h.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		writeJSON(w, status, body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
	}
}

func aliceUser() *api.User {
	return &api.User{ID: 1, Username: "alice", Balance: 42.5, Avatar: "", Status: "offline"}
}

func TestLogin_Success(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, _ := newTestManager(t, h)

	outcome := m.Login(context.Background(), "alice", "Valid1!pass")
	require.True(t, outcome.Success, outcome.Message)

	token, ok := m.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok123", token)
	assert.True(t, m.LoggedIn())

	profile := m.UserData()
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, 42.5, profile.Balance)
}

func TestLogin_BadCredentials(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, _ := newTestManager(t, h)

	outcome := m.Login(context.Background(), "alice", "wrong")
	assert.False(t, outcome.Success)
	// The server's detail message is surfaced verbatim.
	assert.Equal(t, "Invalid credentials", outcome.Message)
	assert.False(t, m.LoggedIn())
}

func TestLoggedIn_TracksTokenOnly(t *testing.T) {
	h := &walletHandler{}
	m, store := newTestManager(t, h)

	assert.False(t, m.LoggedIn())
	// Any stored token counts, valid server-side or not.
	require.NoError(t, store.SetToken("stale-token"))
	assert.True(t, m.LoggedIn())
}

func TestLogout_ClearsEverything(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, store := newTestManager(t, h)

	require.True(t, m.Login(context.Background(), "alice", "Valid1!pass").Success)
	m.Logout()

	_, ok := m.Token()
	assert.False(t, ok)
	assert.Equal(t, DefaultProfile(), m.UserData())
	_, ok = store.LastRefresh()
	assert.False(t, ok)

	m.mu.Lock()
	assert.Nil(t, m.stopTimer, "refresh timer must be cancelled on logout")
	m.mu.Unlock()
}

func TestRefresh_NoToken(t *testing.T) {
	h := &walletHandler{}
	m, _ := newTestManager(t, h)

	assert.Equal(t, RefreshNoSession, m.Refresh(context.Background()))
	assert.Zero(t, h.meCallCount())
}

func TestRefresh_ThrottleServesCache(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, store := newTestManager(t, h)
	require.NoError(t, store.SetToken("tok123"))

	assert.Equal(t, RefreshOK, m.Refresh(context.Background()))
	assert.Equal(t, RefreshCached, m.Refresh(context.Background()))
	assert.Equal(t, 1, h.meCallCount(), "second refresh inside the throttle window must not hit the network")
}

func TestRefreshOnEvent_BypassesThrottle(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, store := newTestManager(t, h)
	require.NoError(t, store.SetToken("tok123"))

	require.Equal(t, RefreshOK, m.Refresh(context.Background()))
	require.Equal(t, RefreshOK, m.RefreshOnEvent(context.Background()))
	assert.Equal(t, 2, h.meCallCount())
}

func TestRefresh_AuthErrorClearsSession(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	m, store := newTestManager(t, h)
	require.NoError(t, store.SetToken("expired"))

	var gotReason InvalidationReason
	var fired bool
	m.OnInvalidate(func(reason InvalidationReason) {
		fired = true
		gotReason = reason
	})

	assert.Equal(t, RefreshInvalidated, m.Refresh(context.Background()))
	assert.False(t, m.LoggedIn())
	assert.Equal(t, DefaultProfile(), m.UserData())
	assert.True(t, fired)
	assert.Equal(t, ReasonAuthRejected, gotReason)
}

func TestRefresh_TransientErrorKeepsCache(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, store := newTestManager(t, h)
	require.NoError(t, store.SetToken("tok123"))
	require.Equal(t, RefreshOK, m.Refresh(context.Background()))

	h.setMe(http.StatusInternalServerError, map[string]string{"detail": "database unavailable"})
	assert.Equal(t, RefreshFailed, m.RefreshOnEvent(context.Background()))

	// Stale cache beats a blank screen on a server hiccup.
	assert.True(t, m.LoggedIn())
	assert.Equal(t, "alice", m.UserData().Username)
}

func TestRefresh_MalformedResponseIgnored(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, store := newTestManager(t, h)
	require.NoError(t, store.SetToken("tok123"))
	require.Equal(t, RefreshOK, m.Refresh(context.Background()))

	h.setMe(http.StatusOK, map[string]int{"unexpected": 1})
	assert.Equal(t, RefreshFailed, m.RefreshOnEvent(context.Background()))
	assert.Equal(t, "alice", m.UserData().Username)
}

func TestRefresh_IdentityMismatchTearsDown(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, store := newTestManager(t, h)
	require.NoError(t, store.SetToken("tok123"))
	require.Equal(t, RefreshOK, m.Refresh(context.Background()))

	var gotReason InvalidationReason
	m.OnInvalidate(func(reason InvalidationReason) { gotReason = reason })

	h.setMe(http.StatusOK, &api.User{ID: 2, Username: "bob", Balance: 7})
	assert.Equal(t, RefreshInvalidated, m.RefreshOnEvent(context.Background()))

	assert.False(t, m.LoggedIn())
	assert.Equal(t, DefaultProfile(), m.UserData())
	assert.Equal(t, ReasonIdentityChanged, gotReason)
}

func TestRefresh_ConcurrentCallsShareOneRequest(t *testing.T) {
	h := &walletHandler{meDelay: 50 * time.Millisecond}
	h.setMe(http.StatusOK, aliceUser())
	m, store := newTestManager(t, h)
	require.NoError(t, store.SetToken("tok123"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, m.Refresh(context.Background()).OK())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.meCallCount(), "concurrent refreshes must coalesce into one request")
}

func TestRegister_LocalValidationSkipsNetwork(t *testing.T) {
	tests := []struct {
		name   string
		fields RegisterFields
	}{
		{"short username", RegisterFields{Username: "ab", Email: "a@b.com", PhoneNumber: "5551234567", Password: "Valid1!pass"}},
		{"weak password", RegisterFields{Username: "alice", Email: "a@b.com", PhoneNumber: "5551234567", Password: "password"}},
		{"malformed email", RegisterFields{Username: "alice", Email: "not-an-email", PhoneNumber: "5551234567", Password: "Valid1!pass"}},
		{"wrong-length phone", RegisterFields{Username: "alice", Email: "a@b.com", PhoneNumber: "12345", Password: "Valid1!pass"}},
		{"missing field", RegisterFields{Username: "alice", Email: "a@b.com", Password: "Valid1!pass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &walletHandler{}
			m, _ := newTestManager(t, h)

			_, err := m.Register(context.Background(), tt.fields)
			require.Error(t, err)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Zero(t, atomic.LoadInt32(&h.allCalls), "validation errors must not reach the network")
		})
	}
}

func TestRegister_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)
		writeJSON(w, http.StatusCreated, &api.User{ID: 1, Username: "alice"})
	})
	m, _ := newTestManager(t, mux)

	user, err := m.Register(context.Background(), RegisterFields{
		Username:    "alice",
		Email:       "alice@example.com",
		PhoneNumber: "5551234567",
		Password:    "Valid1!pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	// Registration does not log in.
	assert.False(t, m.LoggedIn())
}

func TestUpdateProfile(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		m, _ := newTestManager(t, &walletHandler{})
		email := "new@example.com"
		_, err := m.UpdateProfile(context.Background(), ProfileUpdate{Email: &email})
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		m, store := newTestManager(t, &walletHandler{})
		require.NoError(t, store.SetToken("tok123"))
		_, err := m.UpdateProfile(context.Background(), ProfileUpdate{})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("patches and merges the response", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, map[string]string{"email": "new@example.com"}, payload)
			writeJSON(w, http.StatusOK, &api.User{ID: 1, Username: "alice", Balance: 42.5, Email: "new@example.com"})
		})
		m, store := newTestManager(t, mux)
		require.NoError(t, store.SetToken("tok123"))

		email := "new@example.com"
		user, err := m.UpdateProfile(context.Background(), ProfileUpdate{Email: &email})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, 42.5, m.UserData().Balance)
	})
}

func TestSetUserData_RoundTripDropsExtraFields(t *testing.T) {
	m, _ := newTestManager(t, &walletHandler{})

	m.SetUserData(api.User{
		ID:          3,
		Username:    "carol",
		Balance:     10,
		Avatar:      "cat.png",
		Status:      "online",
		Email:       "carol@example.com",
		PhoneNumber: "5550001111",
	})

	assert.Equal(t, Profile{ID: 3, Username: "carol", Balance: 10, Avatar: "cat.png", Status: "online"}, m.UserData())
}

func TestStartAutoRefresh_IsIdempotent(t *testing.T) {
	h := &walletHandler{}
	h.setMe(http.StatusOK, aliceUser())
	m, store := newTestManager(t, h)
	require.NoError(t, store.SetToken("tok123"))

	m.StartAutoRefresh()
	m.StartAutoRefresh()
	m.StopAutoRefresh()

	m.mu.Lock()
	assert.Nil(t, m.stopTimer)
	m.mu.Unlock()
}
