package jwtcodec

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// defaultFallbackCharset is applied to strings that are not valid UTF-8
var defaultFallbackCharset encoding.Encoding = charmap.ISO8859_1

// normalizeText returns a copy of v in which every string that is not valid
// UTF-8 has been decoded from charset into UTF-8. Maps and slices are
// copied; the caller's values are never modified. Values that are neither
// strings nor containers are returned unchanged.
func normalizeText(v any, charset encoding.Encoding) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return normalizeString(x, charset)
	case json.Number, bool:
		return x
	case *Map:
		if x == nil {
			return x
		}
		out := NewMap()
		x.Range(func(k string, value any) bool {
			out.Set(normalizeString(k, charset), normalizeText(value, charset))
			return true
		})
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, value := range x {
			out[normalizeString(k, charset)] = normalizeText(value, charset)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalizeText(item, charset)
		}
		return out
	case json.Marshaler:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return normalizeString(rv.String(), charset)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v
		}
		items, _ := asSlice(v)
		return normalizeText(items, charset)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[normalizeString(iter.Key().String(), charset)] = normalizeText(iter.Value().Interface(), charset)
		}
		return out
	case reflect.Struct:
		return normalizeField(rv, charset).Interface()
	}
	return v
}

// normalizeField returns a copy of rv, with the same type, in which every
// string reachable through exported struct fields, slices, arrays and maps
// has been normalized. Pointers are not followed.
func normalizeField(rv reflect.Value, charset encoding.Encoding) reflect.Value {
	switch rv.Kind() {
	case reflect.String:
		return reflect.ValueOf(normalizeString(rv.String(), charset)).Convert(rv.Type())
	case reflect.Struct:
		out := reflect.New(rv.Type()).Elem()
		out.Set(rv)
		for i := 0; i < out.NumField(); i++ {
			if field := out.Field(i); field.CanSet() {
				field.Set(normalizeField(field, charset))
			}
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(normalizeField(rv.Index(i), charset))
		}
		return out
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(normalizeField(rv.Index(i), charset))
		}
		return out
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(normalizeField(iter.Key(), charset), normalizeField(iter.Value(), charset))
		}
		return out
	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		normalized := reflect.ValueOf(normalizeText(rv.Elem().Interface(), charset))
		if !normalized.IsValid() || !normalized.Type().AssignableTo(rv.Type()) {
			return rv
		}
		out := reflect.New(rv.Type()).Elem()
		out.Set(normalized)
		return out
	}
	return rv
}

func normalizeString(s string, charset encoding.Encoding) string {
	if s == "" || utf8.ValidString(s) {
		return s
	}
	if charset == nil {
		charset = defaultFallbackCharset
	}
	decoded, err := charset.NewDecoder().String(s)
	if err != nil || !utf8.ValidString(decoded) {
		return strings.ToValidUTF8(s, "\uFFFD")
	}
	return decoded
}
