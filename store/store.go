// Package store persists small JSON documents for one user profile, the way
// a browser keeps localStorage. Keys are independent: there is no
// transaction across keys and concurrent writers are last-writer-wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrQuotaExceeded is returned when a write would grow the store past its quota.
var ErrQuotaExceeded = errors.New("store quota exceeded")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into a T. It returns def when the key
// is absent, unreadable or holds something that does not decode.
func GetJSON[T any](ctx context.Context, s Store, key string, def T) T {
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return def
	}
	return v
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.Set(ctx, key, b); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
