package kv

import (
	"fmt"
	"strconv"
	"time"
)

// Encode serialises v as a kind byte followed by its payload. Backends that
// only store raw bytes (Badger, the SQLite blob column) use this format.
func Encode(v Value) ([]byte, error) {
	var payload []byte
	switch v.Kind {
	case KindBool:
		payload = []byte(strconv.FormatBool(v.Bool))
	case KindInt:
		payload = []byte(strconv.FormatInt(v.Int, 10))
	case KindTime:
		payload = []byte(v.Time.Format(time.RFC3339Nano))
	case KindBytes:
		payload = v.Bytes
	default:
		return nil, fmt.Errorf("encode value: unsupported kind %d", v.Kind)
	}

	out := make([]byte, 0, len(payload)+1)
	out = append(out, byte(v.Kind))
	return append(out, payload...), nil
}

// Decode reverses Encode.
func Decode(raw []byte) (Value, error) {
	if len(raw) == 0 {
		return Value{}, fmt.Errorf("decode value: empty payload")
	}

	kind, payload := Kind(raw[0]), raw[1:]
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(string(payload))
		if err != nil {
			return Value{}, fmt.Errorf("decode bool: %w", err)
		}
		return Bool(b), nil
	case KindInt:
		n, err := strconv.ParseInt(string(payload), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("decode int: %w", err)
		}
		return Value{Kind: KindInt, Int: n}, nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, string(payload))
		if err != nil {
			return Value{}, fmt.Errorf("decode time: %w", err)
		}
		return Time(t), nil
	case KindBytes:
		return Bytes(payload), nil
	default:
		return Value{}, fmt.Errorf("decode value: unsupported kind %d", kind)
	}
}
