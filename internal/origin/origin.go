// Package origin provides the data sources the lookup service loads values
// from on a cache miss.
package origin

import (
	"context"
	"errors"
	"fmt"

	"github.com/oriys/memo/internal/config"
)

// ErrNotFound is returned by Fetch when the origin has no value for a key.
var ErrNotFound = errors.New("origin: key not found")

// Origin is a read-only source of values keyed by string.
type Origin interface {
	Name() string
	Fetch(ctx context.Context, key string) ([]byte, error)
	Ping(ctx context.Context) error
	Close() error
}

// New builds the origin selected by cfg.Kind.
func New(ctx context.Context, cfg config.OriginConfig) (Origin, error) {
	switch cfg.Kind {
	case config.OriginStatic, "":
		return NewStatic(cfg.Static), nil
	case config.OriginRedis:
		return NewRedis(cfg.Redis), nil
	case config.OriginPostgres:
		return NewPostgres(ctx, cfg.Postgres)
	case config.OriginS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown origin kind %q", cfg.Kind)
	}
}

func notFound(key string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, key)
}
