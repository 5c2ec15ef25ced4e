package cache

import (
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

// Cache is the keyed byte-level tier contract. Values cross the boundary as
// JSON, so any tier (in-process or redis) is interchangeable.
type Cache interface {
	Set(key string, value interface{}, ttl time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	DeletePattern(pattern string) error
	Stats() map[string]interface{}
	Health() error
	Close() error
}
