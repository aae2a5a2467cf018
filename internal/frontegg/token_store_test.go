package frontegg

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisTokenStore(rdb, ""), mr
}

func TestRedisTokenStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "missing key is absent, not an error")

	cred := VendorCredential{Token: "tok-1", ExpiresAtEpochMs: time.Now().Add(time.Hour).UnixMilli()}
	require.NoError(t, store.Save(ctx, cred))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cred, got)

	ttl := mr.TTL("frontegg:vendor_token")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("frontegg:vendor_token"))
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTokenStoreSkipsExpiredCredential(t *testing.T) {
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(context.Background(), VendorCredential{
		Token:            "stale",
		ExpiresAtEpochMs: time.Now().Add(-time.Second).UnixMilli(),
	}))

	assert.False(t, mr.Exists("frontegg:vendor_token"))
}

func TestRedisTokenStoreLastWriteWins(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, VendorCredential{Token: "a", ExpiresAtEpochMs: time.Now().Add(time.Hour).UnixMilli()}))
	require.NoError(t, store.Save(ctx, VendorCredential{Token: "b", ExpiresAtEpochMs: time.Now().Add(time.Minute).UnixMilli()}))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", got.Token)
}

func TestRedisTokenStoreExpiresWithToken(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, VendorCredential{Token: "short", ExpiresAtEpochMs: time.Now().Add(time.Minute).UnixMilli()}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTokenStoreCorruptValue(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("frontegg:vendor_token", "{not json"))

	_, _, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestTokenCacheSharesRedisCredential(t *testing.T) {
	srv := newExchangeServer(t, http.StatusOK, `{"token":"shared","expiresIn":3600}`, 0)
	store, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	first := newTestCache(srv, store, now)
	tok, err := first.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared", tok)

	second := newTestCache(srv, store, now)
	require.NoError(t, second.Warm(ctx, 10*time.Minute))
	tok, err = second.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared", tok)
	assert.Equal(t, int32(1), srv.calls.Load(), "a peer's stored token is reused")
}
