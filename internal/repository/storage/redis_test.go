package storage_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gameroom-server/internal/config"
	"github.com/rocketscienceinc/gameroom-server/internal/repository/storage"
	"github.com/rocketscienceinc/gameroom-server/testing/suite"
)

func TestNewRedisStorage(t *testing.T) {
	// Given: a running redis
	ctx, s := suite.New(t)
	host, port, err := net.SplitHostPort(s.Storage.Options().Addr)
	require.NoError(t, err)

	// When: storage connects with the configured address and database
	st, err := storage.NewRedisStorage(ctx, config.Redis{Host: host, Port: port, DB: 1, DialTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	// Then: writes land in that database only
	require.NoError(t, st.Connection.Set(ctx, "key", "value", 0).Err())

	got, err := st.Connection.Get(ctx, "key").Result()
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	exists, err := s.Storage.Exists(ctx, "key").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestNewRedisStorage_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := storage.NewRedisStorage(ctx, config.Redis{Host: "127.0.0.1", Port: "1", DialTimeout: 200 * time.Millisecond})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
