package embedstore

import (
	"fmt"

	"gorm.io/gorm"
)

// Store backend kinds
const (
	KindDatabase = "database"
	KindRedis    = "redis"
)

// Config selects and configures the embedding store backend
type Config struct {
	Type          string `json:"type" yaml:"type"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
}

// NewStore creates an embedding store according to config.
// An empty type defaults to the database backend.
func NewStore(cfg Config, db *gorm.DB) (Store, error) {
	switch cfg.Type {
	case KindDatabase, "":
		return NewGormStore(db)
	case KindRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unsupported embedding store type: %s", cfg.Type)
	}
}
