package cache

import (
	"fmt"

	appmembership "github.com/onixgym/backend/internal/application/membership"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Mode says what Open does when Redis is enabled but unreachable
type Mode int

const (
	// FallbackToMemory serves from process memory. Dashboard invalidations
	// and revocations then stay local to the replica.
	FallbackToMemory Mode = iota
	// RequireRedis fails instead
	RequireRedis
)

// Open picks the cache backend for cfg: Redis when enabled and reachable,
// process memory otherwise.
func Open(cfg config.RedisConfig, mode Mode, logger *zap.Logger) (appmembership.Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory cache")
		return NewInMemoryCache(), nil
	}

	rc, err := NewRedisCache(cfg)
	switch {
	case err == nil:
		logger.Info("Using Redis cache", zap.String("addr", cfg.Addr()))
		return rc, nil
	case mode == RequireRedis:
		return nil, fmt.Errorf("redis at %s is required but unavailable: %w", cfg.Addr(), err)
	default:
		logger.Warn("Redis unavailable, using in-memory cache",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return NewInMemoryCache(), nil
	}
}
