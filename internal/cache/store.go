// Package cache holds recently built forecasts behind a freshness window.
// The memory backend serves a single instance; the Redis backend lets
// replicas share entries.
package cache

import (
	"context"
	"fmt"
	"strings"
)

// Store is a typed key/value cache whose entries expire after a fixed
// time to live chosen at construction.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V) error
}

// Key builds a location cache key. Coordinates are rounded to four decimal
// places (about 11 m) and an empty field ID becomes "unknown".
func Key(namespace string, lat, lon float64, fieldID string) string {
	fieldID = strings.TrimSpace(fieldID)
	if fieldID == "" {
		fieldID = "unknown"
	}
	return fmt.Sprintf("%s:%.4f:%.4f:%s", namespace, lat, lon, fieldID)
}

// Memory is an in-process Store backed by an expiring LRU.
type Memory[V any] struct {
	lru *LRU[V]
}

// NewMemory wraps lru as a Store.
func NewMemory[V any](lru *LRU[V]) *Memory[V] {
	return &Memory[V]{lru: lru}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V) error {
	m.lru.Put(key, value)
	return nil
}
