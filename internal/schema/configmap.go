package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ConfigMap is a flat key/value configuration
type ConfigMap map[string]Value

// Keys returns the keys in sorted order
func (m ConfigMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present
func (m ConfigMap) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Clone returns a copy that shares nothing with m
func (m ConfigMap) Clone() ConfigMap {
	out := make(ConfigMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Strings renders every value as text
func (m ConfigMap) Strings() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.String()
	}
	return out
}

// Equal compares key sets and values
func (m ConfigMap) Equal(o ConfigMap) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Merge returns base overlaid with over. Keys from over win.
// Neither argument is modified.
func Merge(base, over ConfigMap) ConfigMap {
	out := make(ConfigMap, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Diff compares a stored configuration against the schema.
// newKeys are schema keys missing from stored, staleKeys are stored keys
// the schema no longer knows. Both are sorted.
func Diff(stored, schema ConfigMap) (newKeys, staleKeys []string) {
	for _, k := range schema.Keys() {
		if !stored.Has(k) {
			newKeys = append(newKeys, k)
		}
	}
	for _, k := range stored.Keys() {
		if !schema.Has(k) {
			staleKeys = append(staleKeys, k)
		}
	}
	return newKeys, staleKeys
}

// SameKeys reports whether a and b have identical key sets
func SameKeys(a, b ConfigMap) bool {
	newKeys, staleKeys := Diff(a, b)
	return len(newKeys) == 0 && len(staleKeys) == 0
}

// Encode serializes the configuration as a JSON object
func Encode(m ConfigMap) ([]byte, error) {
	if m == nil {
		m = ConfigMap{}
	}
	return json.Marshal(m)
}

// Decode parses a serialized configuration. The payload must be a JSON
// object of strings and numbers.
func Decode(data []byte) (ConfigMap, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	m := make(ConfigMap, len(raw))
	for k, msg := range raw {
		var v Value
		if err := v.UnmarshalJSON(msg); err != nil {
			return nil, fmt.Errorf("%w: key %s: %v", ErrMalformed, k, err)
		}
		m[k] = v
	}
	return m, nil
}
