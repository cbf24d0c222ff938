package storage

import (
	"errors"
	"fmt"
	"strings"

	appmembership "github.com/onixgym/backend/internal/application/membership"
	infraconfig "github.com/onixgym/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Storage drivers accepted in storage.driver
const (
	DriverS3     = "s3"
	DriverLocal  = "local"
	DriverMemory = "memory"
)

// ContentTypePNG is the content type card images are stored with
const ContentTypePNG = "image/png"

// NewCardStore builds the store selected by cfg.Driver
func NewCardStore(cfg *infraconfig.StorageConfig, logger *zap.Logger) (appmembership.CardStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Driver) {
	case DriverS3:
		return NewS3CardStore(cfg, WithLogger(logger.Named("s3")))
	case "", DriverLocal:
		return NewLocalCardStore(cfg.LocalDir, cfg.PublicBaseURL, logger.Named("local"))
	case DriverMemory:
		store := NewMemoryCardStore()
		if cfg.PublicBaseURL != "" {
			store.BaseURL = cfg.PublicBaseURL
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
