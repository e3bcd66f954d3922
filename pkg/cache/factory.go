package cache

import (
	"fmt"
	"strings"
)

const (
	KindLocal = "local" // local
	KindRedis = "redis" // redis
)

// NewCache creates a cache instance based on configuration
func NewCache(config Config) (Cache, error) {
	switch strings.ToLower(config.Type) {
	case KindLocal, "":
		return NewLocalCache(config.Local), nil
	case KindRedis:
		return NewRedisCache(config.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}
