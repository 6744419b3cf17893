package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache marks chat sessions that received a message recently so the
// bootstrap path can skip a round trip for hot sessions.
type SessionCache struct {
	client *redis.Client
	wt     time.Duration
	rt     time.Duration
}

func NewSessionCache(c *redis.Client, wt time.Duration, rt time.Duration) *SessionCache {
	return &SessionCache{
		client: c,
		wt:     wt,
		rt:     rt,
	}
}

func (sc *SessionCache) Set(key string, dur time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), sc.wt)
	defer cancel()
	err := sc.client.Set(ctx, key, true, dur).Err()
	if err != nil {
		return err
	}

	return nil
}

func (sc *SessionCache) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sc.wt)
	defer cancel()
	err := sc.client.Del(ctx, key).Err()
	if err != nil {
		return err
	}

	return nil
}

func (sc *SessionCache) Exists(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), sc.rt)
	defer cancel()

	result := sc.client.Get(ctx, key)

	return result.Err() != redis.Nil
}
