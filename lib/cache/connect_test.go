package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedisSucceeds(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	c := NewRedisCache(NewRedisClient(s.Addr(), ""))
	assert.NoError(t, ConnectRedis(context.Background(), c))
}

func TestConnectRedisExhaustsRetries(t *testing.T) {
	// Grab an address that nothing listens on.
	s, err := miniredis.Run()
	require.NoError(t, err)
	addr := s.Addr()
	s.Close()

	c := NewRedisCache(NewRedisClient(addr, ""))
	assert.Error(t, ConnectRedis(context.Background(), c))
}
