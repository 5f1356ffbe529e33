package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 2 * time.Second
	pingTimeout = 5 * time.Second
)

func clientOptions(addr string, db int) *redis.Options {
	return &redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
}

// OpenRedis connects and pings; the client backs idempotency keys and
// revoked session ids.
func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(clientOptions(addr, db))
	if err := ping(r); err != nil {
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	log.WithFields(log.Fields{"addr": addr, "db": db}).Info("redis: connected")
	return r, nil
}

// ping closes r when the server does not answer.
func ping(r *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return err
	}
	return nil
}
