// Package cache stores normalized texts keyed by input and configuration.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandroruanova/preprocessing-service/internal/pkg/config"
)

// ResultCache is a string key/value store for pipeline results.
// A miss is reported with ok == false and a nil error.
type ResultCache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Health(ctx context.Context) map[string]interface{}
	Close() error
}

// New builds the cache selected by cfg.Backend
func New(cfg *config.CacheConfig, logger *slog.Logger) (ResultCache, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		c, err := NewRedisCache(cfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.CacheBackendMemory:
		c, err := NewMemoryCache(cfg.MemorySize, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.CacheBackendNone, "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Noop) Set(context.Context, string, string) error         { return nil }
func (Noop) Close() error                                       { return nil }

func (Noop) Health(context.Context) map[string]interface{} {
	return map[string]interface{}{"status": "disabled"}
}
