package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eralogue/eralogue/internal/settings"
	"github.com/redis/go-redis/v9"
)

type SettingsCache struct {
	client *redis.Client
	wt     time.Duration
	rt     time.Duration
	ttl    time.Duration
}

func NewSettingsCache(c *redis.Client, wt time.Duration, rt time.Duration, ttl time.Duration) *SettingsCache {
	return &SettingsCache{
		client: c,
		wt:     wt,
		rt:     rt,
		ttl:    ttl,
	}
}

func settingsKey(userId string) string {
	return "user-settings:" + userId
}

// SetSettings caches the whole settings object. Partial updates are never
// cached.
func (c *SettingsCache) SetSettings(us *settings.UserSettings) error {
	bs, err := json.Marshal(us)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.wt)
	defer cancel()
	err = c.client.Set(ctx, settingsKey(us.UserId), bs, c.ttl).Err()
	if err != nil {
		return err
	}

	return nil
}

func (c *SettingsCache) GetSettings(userId string) (*settings.UserSettings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.rt)
	defer cancel()

	result := c.client.Get(ctx, settingsKey(userId))
	err := result.Err()
	if err != nil {
		return nil, err
	}

	bs, err := result.Bytes()
	if err != nil {
		return nil, err
	}

	us := &settings.UserSettings{}
	err = json.Unmarshal(bs, us)
	if err != nil {
		return nil, err
	}

	return us, nil
}

func (c *SettingsCache) DeleteSettings(userId string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.wt)
	defer cancel()
	err := c.client.Del(ctx, settingsKey(userId)).Err()
	if err != nil {
		return err
	}

	return nil
}
