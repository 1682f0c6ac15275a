package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Fetch is GetOrGenerate for a JSON-encodable value.
func Fetch[T any](ctx context.Context, m *Manager, key string, gen func(ctx context.Context) (T, error)) (T, error) {
	entry, err := m.GetOrGenerate(ctx, key, encode(gen))
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](key, entry.Payload)
}

// Regenerate is Refresh for a JSON-encodable value.
func Regenerate[T any](ctx context.Context, m *Manager, key string, gen func(ctx context.Context) (T, error)) (T, error) {
	entry, err := m.Refresh(ctx, key, encode(gen))
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](key, entry.Payload)
}

// Lookup is Get decoded into T. The boolean is false on a miss.
func Lookup[T any](ctx context.Context, m *Manager, key string) (T, bool, error) {
	var zero T
	entry, ok, err := m.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := decode[T](key, entry.Payload)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Store is Populate for a JSON-encodable value.
func Store[T any](ctx context.Context, m *Manager, key string, v T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache payload for %q: %w", key, err)
	}
	_, err = m.Populate(ctx, key, payload)
	return err
}

func encode[T any](gen func(ctx context.Context) (T, error)) GenerateFunc {
	return func(ctx context.Context) (json.RawMessage, error) {
		v, err := gen(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
}

func decode[T any](key string, payload json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("decoding cache payload for %q: %w", key, err)
	}
	return v, nil
}
