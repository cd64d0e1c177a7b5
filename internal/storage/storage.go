package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("key not found")
	// ErrUnreadable wraps a stored value that no longer decodes.
	ErrUnreadable = errors.New("stored value is unreadable")
)

// Store is a byte-oriented key-value store. Values are always written and
// read wholesale.
// Consumers define which keys they own; the store does not interpret values.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SaveJSON serialises v and writes it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// LoadJSON reads key into v. It returns ErrNotFound when the key is absent
// and ErrUnreadable when the value does not decode.
func LoadJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: unmarshal %s failed: %w", ErrUnreadable, key, err)
	}
	return nil
}
