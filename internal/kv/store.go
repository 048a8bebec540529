// Package kv defines the key-value store the habit engine persists into.
//
// The engine never talks to a concrete database. It receives a Store, and the
// application decides whether that is the SQLite file, the shared Badger
// directory, both at once through Mirrored, or an in-memory map in tests.
package kv

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrUnavailable is returned when the underlying store cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is a flat, string-keyed persistent mapping.
//
// Implementations must be safe for concurrent use. Each Set and Remove is
// atomic per key; nothing spans more than one key.
type Store interface {
	Get(key string) (Value, error)
	Set(key string, value Value) error
	Remove(key string) error
	// Keys lists every key starting with prefix, in no particular order.
	Keys(prefix string) ([]string, error)
}

// Kind tags the type held by a Value.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInt
	KindTime
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is one of bool, int, time or bytes.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Time  time.Time
	Bytes []byte
}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int wraps an integer.
func Int(n int) Value { return Value{Kind: KindInt, Int: int64(n)} }

// Time wraps an instant.
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// Bytes wraps a copy of b.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: append([]byte(nil), b...)} }
