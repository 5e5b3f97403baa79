// Package scorelog stores the results of finished games.
package scorelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Record is one row of the score log. Kind is stored next to the encoded
// record and must not change once rows of that kind exist.
type Record interface {
	Kind() string
	Ts() time.Time
	WithId(int64) Record
}

var ErrUnknownKind = errors.New("scorelog: unknown record kind")

type decodeFunc func(json.RawMessage) (Record, error)

var (
	kindsMu sync.RWMutex
	kinds   = make(map[string]decodeFunc)
)

// Register makes rows of T's kind decodable.
func Register[T Record]() {
	var zero T
	kind := zero.Kind()

	kindsMu.Lock()
	defer kindsMu.Unlock()
	kinds[kind] = func(data json.RawMessage) (Record, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		return v, nil
	}
}

type row struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Encode wraps r with its kind.
func Encode(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", r.Kind(), err)
	}
	return json.Marshal(row{Kind: r.Kind(), Data: data})
}

// Decode reverses Encode for any registered kind.
func Decode(b []byte) (Record, error) {
	var r row
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}

	kindsMu.RLock()
	dec, ok := kinds[r.Kind]
	kindsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, r.Kind)
	}
	return dec(r.Data)
}
