package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Codec converts a slot value to and from its stored bytes.
type Codec[T any] struct {
	Encode func(T) ([]byte, error)
	Decode func([]byte) (T, error)
}

// JSONCodec stores values as plain JSON.
func JSONCodec[T any]() Codec[T] {
	return Codec[T]{
		Encode: func(v T) ([]byte, error) { return json.Marshal(v) },
		Decode: func(b []byte) (T, error) {
			var v T
			err := json.Unmarshal(b, &v)
			return v, err
		},
	}
}

// Slot is a single typed value kept under one key.
// Reads never fail: absent or malformed data yields the default.
type Slot[T any] struct {
	store  Store
	key    string
	def    func() T
	codec  Codec[T]
	logger *slog.Logger
}

// NewSlot creates a slot for key. def builds the fallback value.
func NewSlot[T any](store Store, key string, def func() T, codec Codec[T], logger *slog.Logger) *Slot[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slot[T]{
		store:  store,
		key:    key,
		def:    def,
		codec:  codec,
		logger: logger,
	}
}

// Key returns the storage key of the slot.
func (s *Slot[T]) Key() string {
	return s.key
}

// Read returns the stored value, or the default when it is absent or unreadable.
func (s *Slot[T]) Read(ctx context.Context) T {
	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return s.def()
	}
	if err != nil {
		s.logger.Warn("Failed to read storage slot, using default", "key", s.key, "error", err)
		return s.def()
	}

	v, err := s.codec.Decode(raw)
	if err != nil {
		s.logger.Warn("Malformed storage slot, using default", "key", s.key, "error", err)
		return s.def()
	}
	return v
}

// Write overwrites the stored value.
func (s *Slot[T]) Write(ctx context.Context, v T) error {
	raw, err := s.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.key, err)
	}
	if err := s.store.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.key, err)
	}
	return nil
}

// Clear removes the stored value so the next Read returns the default.
func (s *Slot[T]) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear %s: %w", s.key, err)
	}
	return nil
}
