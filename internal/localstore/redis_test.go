package localstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, prefix string) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, prefix), mr
}

func TestRedisStore(t *testing.T) {
	s, _ := setupTestRedis(t, "")
	storeContract(t, s)
}

func TestRedisStore_PrefixAndNoExpiry(t *testing.T) {
	s, mr := setupTestRedis(t, "storefront")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sess-1:cart", "[]"))

	assert.True(t, mr.Exists("storefront:sess-1:cart"))
	assert.Zero(t, mr.TTL("storefront:sess-1:cart"))
	v, err := mr.Get("storefront:sess-1:cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestRedisStore_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t, "")
	mr.Close()

	_, err := s.Get(context.Background(), "cart")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
