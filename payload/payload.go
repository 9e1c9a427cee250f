// Package payload defines the opaque entity payload exchanged with the
// external journal platform and its canonical, hashable form.
//
// Callers on either side define the actual schema (manuscript, reviewer,
// decision, ...); this package only guarantees that two payloads with the
// same logical content always hash to the same digest.
package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Payload is an opaque, caller-defined entity representation.
type Payload map[string]interface{}

// Clone returns a deep copy of the payload. Nested maps and slices are
// copied; scalar values are shared (they are immutable through the map).
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Payload:
		return map[string]interface{}(t.Clone())
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

// Canonicalize serializes the payload into a deterministic byte form:
// recursively sorted keys, no insignificant whitespace. Identical logical
// content always yields identical bytes.
func Canonicalize(p Payload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return canonicalValue(map[string]interface{}(p))
}

func canonicalValue(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := canonicalValue(t[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = append(buf, vb...)
		}
		return append(buf, '}'), nil
	case Payload:
		return canonicalValue(map[string]interface{}(t))
	case []interface{}:
		buf := []byte{'['}
		for i, e := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			eb, err := canonicalValue(e)
			if err != nil {
				return nil, err
			}
			buf = append(buf, eb...)
		}
		return append(buf, ']'), nil
	default:
		return json.Marshal(v)
	}
}

// Hash computes the sha256 digest of the canonical form, hex encoded.
// A nil payload hashes to the empty string so an absent side never collides
// with real content.
func Hash(p Payload) (string, error) {
	if p == nil {
		return "", nil
	}
	canonical, err := Canonicalize(p)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// TimestampExtractor pulls a modification timestamp out of a payload.
// Conflict resolution strategies that compare recency depend on one being
// injected; the engine does not assume any particular schema.
type TimestampExtractor func(p Payload) (time.Time, bool)

// DefaultTimestampExtractor reads the first of the conventional timestamp
// fields ("updated_at", "ts", "modified_at") as RFC 3339.
func DefaultTimestampExtractor(p Payload) (time.Time, bool) {
	for _, field := range []string{"updated_at", "ts", "modified_at"} {
		raw, ok := p[field]
		if !ok {
			continue
		}
		switch t := raw.(type) {
		case string:
			parsed, err := time.Parse(time.RFC3339, t)
			if err == nil {
				return parsed, true
			}
		case time.Time:
			return t, true
		}
	}
	return time.Time{}, false
}
