// Package statestore is a short-TTL key/value cache used to hand OAuth state
// across otherwise stateless requests.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned when a key is absent or has expired.
var ErrMiss = errors.New("statestore: miss")

type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Take returns the value and removes it in one step. Of two concurrent
	// callers at most one observes the value.
	Take(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("statestore: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

func GetJSON(ctx context.Context, s Store, key string, out any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("statestore: decode %s: %w", key, err)
	}
	return nil
}

func TakeJSON(ctx context.Context, s Store, key string, out any) error {
	raw, err := s.Take(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("statestore: decode %s: %w", key, err)
	}
	return nil
}
