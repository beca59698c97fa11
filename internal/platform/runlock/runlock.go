// Package runlock guards against two pipeline runs processing the same
// mode concurrently, via a Redis SETNX lock with a TTL safety net.
package runlock

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

type Lock struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
	ttl time.Duration
}

func New(log *logger.Logger, ttl time.Duration) (*Lock, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Lock{log: log, rdb: rdb, ttl: ttl}, nil
}

// Acquire tries to take the run lock for mode, returning ok=false without
// error when another run already holds it.
func (l *Lock) Acquire(ctx context.Context, mode string) (release func(context.Context), ok bool, err error) {
	if l == nil {
		return func(context.Context) {}, true, nil
	}
	key := "gazette_pipeline:run_lock:" + mode
	acquired, err := l.rdb.SetNX(ctx, key, time.Now().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return func(releaseCtx context.Context) {
		if err := l.rdb.Del(releaseCtx, key).Err(); err != nil && l.log != nil {
			l.log.Warn("run lock release failed", "key", key, "error", err)
		}
	}, true, nil
}

func (l *Lock) Close() error {
	if l == nil {
		return nil
	}
	return l.rdb.Close()
}
