package usecase

import (
	"context"
	"time"
)

// ProjectionCache stores JSON read projections. Implementations are best effort: a miss and an unavailable
// backend look the same to callers.
type ProjectionCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Available() bool
}

type NopCache struct{}

func (NopCache) GetJSON(context.Context, string, any) (bool, error)                { return false, nil }
func (NopCache) SetJSON(context.Context, string, any, time.Duration) error         { return nil }
func (NopCache) Delete(context.Context, string) error                              { return nil }
func (NopCache) DeleteByPattern(context.Context, string) error                     { return nil }
func (NopCache) SetIfNotExists(context.Context, string, string, time.Duration) (bool, error) {
	return false, nil
}
func (NopCache) Available() bool { return false }
