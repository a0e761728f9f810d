package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestCreateAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "u1", "a@x.com", map[string]any{"role": "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "u1", rec.UserID)
	require.Equal(t, "a@x.com", rec.Email)
	require.Equal(t, "admin", rec.Extra["role"])
}

func TestCreateIDsAreOpaqueAndUnique(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, "u1", "a@x.com", nil)
	require.NoError(t, err)
	b, err := store.Create(ctx, "u1", "a@x.com", nil)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NotContains(t, a, "u1")
	require.NotContains(t, a, "a@x.com")
}

func TestCreateRequiresUserID(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Create(context.Background(), "", "a@x.com", nil)
	require.Error(t, err)
}

func TestGetMissingAndExpired(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Get(ctx, "no-such-session")
	require.NoError(t, err)
	require.Nil(t, rec)

	rec, err = store.Get(ctx, "")
	require.NoError(t, err)
	require.Nil(t, rec)

	id, err := store.Create(ctx, "u1", "a@x.com", nil)
	require.NoError(t, err)

	mr.FastForward(TTL + time.Minute)

	rec, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestGetMalformedReadsAsAbsent(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, mr.Set("session:broken", "{not json"))

	rec, err := store.Get(context.Background(), "broken")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestRefreshResetsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "u1", "a@x.com", nil)
	require.NoError(t, err)

	mr.FastForward(20 * time.Hour)
	require.NoError(t, store.Refresh(ctx, id))
	mr.FastForward(20 * time.Hour)

	// Without the refresh the record would be gone by now.
	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "u1", rec.UserID)
}

func TestDeleteIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "u1", "a@x.com", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, rec)

	// Deleting again, and deleting the never-existed, both succeed.
	require.NoError(t, store.Delete(ctx, id))
	require.NoError(t, store.Delete(ctx, "never-existed"))
	require.NoError(t, store.Delete(ctx, ""))
}
