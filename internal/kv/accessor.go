package kv

import (
	"errors"
	"log"
	"time"

	"daya/internal/metrics"
)

// Accessor reads and writes typed values, degrading every store failure to a
// default. A missing key, a value of the wrong kind and an unavailable store
// all read as absent; failed writes are logged no-ops.
type Accessor struct {
	store Store
}

// Access returns an Accessor over s. A nil s behaves like Unavailable.
func Access(s Store) Accessor {
	if s == nil {
		s = Unavailable{}
	}
	return Accessor{store: s}
}

// Store returns the wrapped store.
func (a Accessor) Store() Store {
	return a.store
}

func (a Accessor) get(key string, kind Kind) (Value, bool) {
	v, err := a.store.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.StoreErrors.WithLabelValues("get").Inc()
			log.Printf("⚠️ read %s: %v", key, err)
		}
		return Value{}, false
	}
	if v.Kind != kind {
		metrics.StoreErrors.WithLabelValues("kind").Inc()
		log.Printf("⚠️ read %s: stored %s, expected %s", key, v.Kind, kind)
		return Value{}, false
	}
	return v, true
}

// Bool returns the stored boolean and whether one was present.
func (a Accessor) Bool(key string) (bool, bool) {
	v, ok := a.get(key, KindBool)
	return v.Bool, ok
}

// Int returns the stored integer, or 0.
func (a Accessor) Int(key string) int {
	v, _ := a.get(key, KindInt)
	return int(v.Int)
}

// Time returns the stored instant and whether one was present.
func (a Accessor) Time(key string) (time.Time, bool) {
	v, ok := a.get(key, KindTime)
	return v.Time, ok
}

// Bytes returns the stored blob and whether one was present.
func (a Accessor) Bytes(key string) ([]byte, bool) {
	v, ok := a.get(key, KindBytes)
	return v.Bytes, ok
}

// Set writes value, logging instead of failing.
func (a Accessor) Set(key string, value Value) {
	if err := a.store.Set(key, value); err != nil {
		metrics.StoreErrors.WithLabelValues("set").Inc()
		log.Printf("⚠️ write %s: %v", key, err)
	}
}

// Remove deletes key, logging instead of failing. Removing an absent key is a no-op.
func (a Accessor) Remove(key string) {
	if err := a.store.Remove(key); err != nil {
		metrics.StoreErrors.WithLabelValues("remove").Inc()
		log.Printf("⚠️ remove %s: %v", key, err)
	}
}

// Keys lists keys under prefix, or nothing if the store cannot be listed.
func (a Accessor) Keys(prefix string) []string {
	keys, err := a.store.Keys(prefix)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("keys").Inc()
		log.Printf("⚠️ list %s*: %v", prefix, err)
		return nil
	}
	return keys
}
