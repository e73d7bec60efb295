package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gameroom-server/internal/config"
)

// RedisStorage holds the client used by the redis save backend.
type RedisStorage struct {
	Connection *redis.Client
}

// NewRedisStorage connects and pings once, so a wrong address fails at startup rather than on
// the first save.
func NewRedisStorage(ctx context.Context, conf config.Redis) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        conf.GetRedisAddr(),
		Password:    conf.Password,
		DB:          conf.DB,
		DialTimeout: conf.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", conf.GetRedisAddr(), err)
	}

	return &RedisStorage{Connection: client}, nil
}

func (that *RedisStorage) Close() error {
	return that.Connection.Close()
}
