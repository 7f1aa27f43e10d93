// Package store holds the single-value slots that carry a summarization
// outcome from the exchange to the page.
package store

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// Store is a set of named slots, each holding one value until it expires or is
// overwritten.
type Store interface {
	// Get returns nil, nil when the slot is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}

// Replacer is implemented by stores that can set one slot and clear another
// as a single step.
type Replacer interface {
	Replace(ctx context.Context, key string, value []byte, ttl time.Duration, clearKey string) error
}

// Provider resolves the store belonging to the client that sent a request.
type Provider interface {
	Store(c echo.Context) (Store, error)
}

// Replace sets key and clears clearKey, atomically when s supports it.
func Replace(ctx context.Context, s Store, key string, value []byte, ttl time.Duration, clearKey string) error {
	if r, ok := s.(Replacer); ok {
		return r.Replace(ctx, key, value, ttl, clearKey)
	}
	if err := s.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return s.Clear(ctx, clearKey)
}
