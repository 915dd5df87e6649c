package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billfold/internal/api"
	"billfold/internal/session"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKV_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Put("k", "v1"))
	require.NoError(t, db.Put("k", "v2"))

	value, ok, err := db.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)

	require.NoError(t, db.Delete("k", "missing"))
	_, ok, err = db.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store := NewSessionStore(openTestDB(t))

	_, ok := store.Token()
	assert.False(t, ok)
	_, ok = store.Profile()
	assert.False(t, ok)

	require.NoError(t, store.SetToken("tok123"))
	require.NoError(t, store.SetProfile(session.Profile{ID: 1, Username: "alice", Balance: 42.5, Status: "online"}))
	now := time.Now().Truncate(time.Millisecond)
	require.NoError(t, store.SetLastRefresh(now))

	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok123", token)

	p, ok := store.Profile()
	assert.True(t, ok)
	assert.Equal(t, session.Profile{ID: 1, Username: "alice", Balance: 42.5, Status: "online"}, p)

	last, ok := store.LastRefresh()
	assert.True(t, ok)
	assert.True(t, last.Equal(now))
}

func TestSessionStore_ZeroTimestampMeansAbsent(t *testing.T) {
	store := NewSessionStore(openTestDB(t))

	require.NoError(t, store.SetLastRefresh(time.Now()))
	require.NoError(t, store.SetLastRefresh(time.Time{}))

	_, ok := store.LastRefresh()
	assert.False(t, ok)
}

func TestSessionStore_ClearRemovesAllThreeKeys(t *testing.T) {
	store := NewSessionStore(openTestDB(t))

	require.NoError(t, store.SetToken("tok123"))
	require.NoError(t, store.SetProfile(session.Profile{Username: "alice"}))
	require.NoError(t, store.SetLastRefresh(time.Now()))

	require.NoError(t, store.Clear())

	_, ok := store.Token()
	assert.False(t, ok)
	_, ok = store.Profile()
	assert.False(t, ok)
	_, ok = store.LastRefresh()
	assert.False(t, ok)
}

func TestTransactions_CacheAndFreshness(t *testing.T) {
	db := openTestDB(t)

	_, fresh, err := db.GetTransactions(time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)

	txs := []api.Transaction{
		{ID: 1, Date: "2026-08-30T10:00:00", Description: "coffee", Status: "completed", Amount: 4.5, Direction: "out"},
		{ID: 2, Date: "2026-08-31T09:00:00", Status: "pending", Amount: 100, Direction: "in"},
	}
	require.NoError(t, db.PutTransactions(txs))

	got, fresh, err := db.GetTransactions(time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, "coffee", got[1].Description)
	assert.Empty(t, got[0].Description)

	// An expired cache still returns data, flagged stale.
	got, fresh, err = db.GetTransactions(-time.Second)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Len(t, got, 2)
}

func TestSessionStore_ClearWipesTransactionCache(t *testing.T) {
	db := openTestDB(t)
	store := NewSessionStore(db)

	require.NoError(t, store.SetToken("tok123"))
	require.NoError(t, db.PutTransactions([]api.Transaction{{ID: 1, Status: "completed", Amount: 1}}))

	require.NoError(t, store.Clear())

	got, _, err := db.GetTransactions(time.Minute)
	require.NoError(t, err)
	assert.Empty(t, got, "a new login must not see the previous identity's transactions")
}

func TestPutTransactions_ReplacesPreviousPage(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.PutTransactions([]api.Transaction{{ID: 1, Status: "completed", Amount: 1}}))
	require.NoError(t, db.PutTransactions([]api.Transaction{{ID: 2, Status: "pending", Amount: 2}}))

	got, _, err := db.GetTransactions(time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}
