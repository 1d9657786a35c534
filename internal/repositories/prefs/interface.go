// Package prefs is a bucket-scoped key/value store kept in the preferences
// table. Each repository value sees only the keys of its own bucket.
package prefs

import (
	"context"
)

type Repository interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
