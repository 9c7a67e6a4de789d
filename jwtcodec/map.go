package jwtcodec

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
)

// Map is a string-keyed mapping that remembers insertion order. Headers and
// claim sets are Maps because the wire encoding follows key order.
//
// A Map is not safe for concurrent mutation. The codec only reads it.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty Map
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// MapFrom copies m into a new Map with keys in sorted order
func MapFrom(m map[string]any) *Map {
	out := NewMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Set(k, m[k])
	}
	return out
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position. Set returns the receiver so calls can be chained.
func (m *Map) Set(key string, value any) *Map {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// clone returns a copy of m. Nested maps and slices are copied as well.
func (m *Map) clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{
		keys:   append([]string(nil), m.keys...),
		values: make(map[string]any, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case *Map:
		return x.clone()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

// Get returns the value stored under key
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key, preserving the order of the remaining keys
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false
func (m *Map) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// GetString returns the value under key if it is a string
func (m *Map) GetString(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetFloat returns the value under key if it is numeric
func (m *Map) GetFloat(key string) (float64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// GetInt64 returns the value under key if it is an integral number
func (m *Map) GetInt64(key string) (int64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	if n, isNumber := v.(json.Number); isNumber {
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	}
	return 0, false
}

// Equal reports whether m and other hold the same keys with equal values.
// Key order is ignored, and numbers compare by their JSON text, so a
// claim set built with int64 values equals its decoded json.Number form.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	equal := true
	m.Range(func(k string, v any) bool {
		ov, ok := other.Get(k)
		if !ok || !valuesEqual(v, ov) {
			equal = false
		}
		return equal
	})
	return equal
}

func valuesEqual(a, b any) bool {
	am, aIsMap := asMap(a)
	bm, bIsMap := asMap(b)
	if aIsMap || bIsMap {
		return aIsMap && bIsMap && am.Equal(bm)
	}

	as, aIsSlice := asSlice(a)
	bs, bIsSlice := asSlice(b)
	if aIsSlice || bIsSlice {
		if !aIsSlice || !bIsSlice || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !valuesEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	aj, errA := serializeJSON(a)
	bj, errB := serializeJSON(b)
	return errA == nil && errB == nil && bytes.Equal(aj, bj)
}

func asMap(v any) (*Map, bool) {
	switch m := v.(type) {
	case *Map:
		return m, m != nil
	case map[string]any:
		return MapFrom(m), true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// MarshalJSON encodes the Map with the canonical encoder
func (m *Map) MarshalJSON() ([]byte, error) {
	return serializeJSON(m)
}

// UnmarshalJSON replaces the contents of m, keeping the document's key order
func (m *Map) UnmarshalJSON(data []byte) error {
	parsed, err := parseJSON(data)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}
