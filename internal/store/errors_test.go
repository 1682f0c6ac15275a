package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"base not found", ErrNotFound, true},
		{"card not found", ErrCardNotFound, true},
		{"cache entry not found", ErrCacheEntryNotFound, true},
		{"wrapped group not found", fmt.Errorf("loading: %w", ErrGroupNotFound), true},
		{"store error wrapping not found", NewStoreError("card", "get", "no row", ErrCardNotFound), true},
		{"duplicate", ErrDuplicate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()
	inner := errors.New("connection reset")
	err := NewStoreError("cache_entry", "save", "write failed", inner)

	want := "save operation on cache_entry failed: write failed: connection reset"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Expected StoreError to unwrap to the original error")
	}

	bare := NewStoreError("card", "save", "invalid", nil)
	if bare.Error() != "save operation on card failed: invalid" {
		t.Errorf("Unexpected message %q", bare.Error())
	}
	if !IsDuplicateError(fmt.Errorf("x: %w", ErrDuplicate)) {
		t.Error("Expected wrapped ErrDuplicate to be a duplicate error")
	}
}
