package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusconnect/connect/internal/config"
)

func TestOptions(t *testing.T) {
	opts := Options(&config.Config{RedisAddr: "cache:6380", RedisPassword: "pw", RedisDB: 4})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 4, opts.DB)
	assert.Equal(t, pingTimeout, opts.DialTimeout)
}

func TestConnectRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rdb, err := ConnectRedis(ctx, &config.Config{RedisAddr: "127.0.0.1:1"}, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, rdb)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestDisconnectRedis_NilAndTwice(t *testing.T) {
	DisconnectRedis(nil, zap.NewNop())

	rdb := redis.NewClient(Options(&config.Config{RedisAddr: "127.0.0.1:1"}))
	DisconnectRedis(rdb, zap.NewNop())
	DisconnectRedis(rdb, zap.NewNop())
}
