package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions_Timeouts(t *testing.T) {
	o := clientOptions("redis:6379", 3)

	assert.Equal(t, "redis:6379", o.Addr)
	assert.Equal(t, 3, o.DB)
	assert.Equal(t, dialTimeout, o.DialTimeout)
	assert.Equal(t, ioTimeout, o.ReadTimeout)
	assert.Equal(t, ioTimeout, o.WriteTimeout)
}

func TestOpenRedis_RevocationRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)

	c, err := OpenRedis(s.Addr(), 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, 2, c.Options().DB)
	assert.Equal(t, ioTimeout, c.Options().ReadTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Set(ctx, "session:revoked:t1", "1", time.Hour).Err())

	s.Select(2)
	assert.True(t, s.Exists("session:revoked:t1"), "key must land in the configured db")
	assert.Equal(t, time.Hour, s.TTL("session:revoked:t1"))
}

func TestPing_ClosesClientWhenServerIsGone(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	r := redis.NewClient(clientOptions(addr, 0))
	require.Error(t, ping(r))

	err := r.Ping(context.Background()).Err()
	assert.True(t, errors.Is(err, redis.ErrClosed), "client must be closed after a failed ping, got %v", err)
}

func TestOpenRedis_FailureNamesAddress(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	c, err := OpenRedis(addr, 0)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, strings.Contains(err.Error(), addr), "error %q should name %s", err, addr)
}
