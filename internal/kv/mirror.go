package kv

import (
	"fmt"
	"log"

	"daya/internal/metrics"
)

// Mirror fans every write out to a primary and a mirror store.
//
// Reads are served by the primary. A write is one logical operation: if the
// primary fails the error is returned, if only the mirror fails the failure
// is logged and counted and the primary write stands.
type Mirror struct {
	primary Store
	mirror  Store
}

// Mirrored wraps primary so that every write is also applied to mirror.
func Mirrored(primary, mirror Store) *Mirror {
	return &Mirror{primary: primary, mirror: mirror}
}

func (m *Mirror) Get(key string) (Value, error) {
	return m.primary.Get(key)
}

func (m *Mirror) Set(key string, value Value) error {
	if err := m.primary.Set(key, value); err != nil {
		return fmt.Errorf("primary set %s: %w", key, err)
	}
	if err := m.mirror.Set(key, value); err != nil {
		metrics.MirrorWriteFailures.Inc()
		log.Printf("⚠️ mirror set %s failed: %v", key, err)
	}
	return nil
}

func (m *Mirror) Remove(key string) error {
	if err := m.primary.Remove(key); err != nil {
		return fmt.Errorf("primary remove %s: %w", key, err)
	}
	if err := m.mirror.Remove(key); err != nil {
		metrics.MirrorWriteFailures.Inc()
		log.Printf("⚠️ mirror remove %s failed: %v", key, err)
	}
	return nil
}

func (m *Mirror) Keys(prefix string) ([]string, error) {
	return m.primary.Keys(prefix)
}

// Primary returns the store reads are served from.
func (m *Mirror) Primary() Store {
	return m.primary
}

// Shared returns the mirror store.
func (m *Mirror) Shared() Store {
	return m.mirror
}
