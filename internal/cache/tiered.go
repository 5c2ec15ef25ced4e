package cache

import "time"

// TieredCache composes the in-process tier with an optional redis tier.
// Writes go to both; reads fall through to redis on a local miss and
// re-populate the local tier with a short TTL.
type TieredCache struct {
	local  *MemoryCache
	remote Cache
}

func NewTieredCache(remote Cache) *TieredCache {
	return &TieredCache{
		local:  NewMemoryCache(),
		remote: remote,
	}
}

func (c *TieredCache) Set(key string, value interface{}, ttl time.Duration) error {
	c.local.Set(key, value, ttl)

	if c.remote != nil {
		return c.remote.Set(key, value, ttl)
	}
	return nil
}

func (c *TieredCache) Get(key string, dest interface{}) error {
	if err := c.local.Get(key, dest); err == nil {
		return nil
	}

	if c.remote != nil {
		err := c.remote.Get(key, dest)
		if err == nil {
			c.local.Set(key, dest, 5*time.Minute)
		}
		return err
	}
	return ErrCacheMiss
}

func (c *TieredCache) Delete(key string) error {
	c.local.Delete(key)

	if c.remote != nil {
		return c.remote.Delete(key)
	}
	return nil
}

func (c *TieredCache) DeletePattern(pattern string) error {
	c.local.DeletePattern(pattern)

	if c.remote != nil {
		return c.remote.DeletePattern(pattern)
	}
	return nil
}

func (c *TieredCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"local": c.local.Stats(),
	}
	if c.remote != nil {
		stats["remote"] = c.remote.Stats()
	}
	return stats
}

func (c *TieredCache) Health() error {
	if c.remote != nil {
		return c.remote.Health()
	}
	return nil
}

func (c *TieredCache) Close() error {
	c.local.Close()
	if c.remote != nil {
		return c.remote.Close()
	}
	return nil
}
