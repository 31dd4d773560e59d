// Package store persists extension state as a key-value map of JSON
// values, the shape of the browser's synchronized storage area.
//
// Reads and writes are independent round trips. There is no compare-and-
// swap: a read-modify-write by one caller can be overtaken by another and
// the last write wins.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Store is an asynchronous key-value map with JSON values.
type Store interface {
	// Get returns the values of the requested keys that exist.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	// Set writes each value as JSON.
	Set(ctx context.Context, items map[string]any) error
	// Remove deletes the keys. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	// Keys lists every stored key, sorted.
	Keys(ctx context.Context) ([]string, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out, nil
}

func (m *Memory) Set(ctx context.Context, items map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := encodeItems(items)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range encoded {
		m.data[k] = v
	}
	return nil
}

func (m *Memory) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func encodeItems(items map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(items))
	for k, v := range items {
		if raw, ok := v.(json.RawMessage); ok {
			out[k] = raw
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		out[k] = data
	}
	return out, nil
}
