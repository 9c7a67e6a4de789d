package jwtcodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// serializeJSON writes v as compact JSON. Object members follow Map
// insertion order; plain Go maps are written with sorted keys.
//
// String escaping matches the issuers this format originated with: '/' is
// escaped, and every non-ASCII rune is written as a lowercase \uXXXX
// escape. Tokens issued elsewhere re-encode to the same bytes only if this
// stays byte-exact.
func serializeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case string:
		writeString(buf, x)
	case json.Number:
		// json.Marshal validates the literal
		b, err := json.Marshal(x)
		if err != nil {
			return NewCodecError(ErrCodeSerialization, fmt.Sprintf("invalid number literal %q", string(x)), err)
		}
		buf.Write(b)
	case int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(x, 10))
	case float64, float32:
		b, err := json.Marshal(x)
		if err != nil {
			return NewCodecError(ErrCodeSerialization, fmt.Sprintf("unsupported number %v", x), err)
		}
		buf.Write(b)
	case *Map:
		return writeMap(buf, x)
	case map[string]any:
		return writeMap(buf, MapFrom(x))
	case []any:
		return writeArray(buf, x)
	case json.Marshaler:
		return writeMarshaler(buf, x)
	default:
		return writeReflect(buf, reflect.ValueOf(v))
	}
	return nil
}

func writeMap(buf *bytes.Buffer, m *Map) error {
	if m == nil {
		buf.WriteString("null")
		return nil
	}
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		if err := writeValue(buf, m.values[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// writeMarshaler re-parses the marshaler's output so it gets canonical
// escaping and spacing like everything else.
func writeMarshaler(buf *bytes.Buffer, m json.Marshaler) error {
	if rv := reflect.ValueOf(m); rv.Kind() == reflect.Pointer && rv.IsNil() {
		buf.WriteString("null")
		return nil
	}
	raw, err := m.MarshalJSON()
	if err != nil {
		return NewCodecError(ErrCodeSerialization, fmt.Sprintf("marshal %T", m), err)
	}
	parsed, err := parseValue(raw)
	if err != nil {
		return NewCodecError(ErrCodeSerialization, fmt.Sprintf("%T produced invalid JSON", m), err)
	}
	return writeValue(buf, parsed)
}

func writeReflect(buf *bytes.Buffer, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.String:
		writeString(buf, rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return writeValue(buf, rv.Float())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return writeValue(buf, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		items, _ := asSlice(rv.Interface())
		return writeArray(buf, items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return NewCodecError(ErrCodeSerialization, fmt.Sprintf("map key type %s is not a string", rv.Type().Key()), nil)
		}
		m := NewMap()
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			m.Set(k.String(), rv.MapIndex(k).Interface())
		}
		return writeMap(buf, m)
	case reflect.Struct:
		return writeStruct(buf, rv)
	default:
		return NewCodecError(ErrCodeSerialization, fmt.Sprintf("unsupported value type %s", rv.Type()), nil)
	}
	return nil
}

// writeStruct lets encoding/json apply field tags, then re-encodes the
// result canonically. Fields keep their declaration order.
func writeStruct(buf *bytes.Buffer, rv reflect.Value) error {
	raw, err := json.Marshal(rv.Interface())
	if err != nil {
		return NewCodecError(ErrCodeSerialization, fmt.Sprintf("marshal %s", rv.Type()), err)
	}
	parsed, err := parseValue(raw)
	if err != nil {
		return NewCodecError(ErrCodeSerialization, fmt.Sprintf("%s produced invalid JSON", rv.Type()), err)
	}
	return writeValue(buf, parsed)
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				buf.WriteString(`\"`)
			case '\\':
				buf.WriteString(`\\`)
			case '/':
				buf.WriteString(`\/`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			default:
				if c < 0x20 {
					writeEscapedUnit(buf, rune(c))
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r > 0xFFFF {
			r1, r2 := utf16Pair(r)
			writeEscapedUnit(buf, r1)
			writeEscapedUnit(buf, r2)
		} else {
			// invalid bytes come through as utf8.RuneError (U+FFFD)
			writeEscapedUnit(buf, r)
		}
		i += size
	}
	buf.WriteByte('"')
}

func writeEscapedUnit(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[(r>>12)&0xF])
	buf.WriteByte(hexDigits[(r>>8)&0xF])
	buf.WriteByte(hexDigits[(r>>4)&0xF])
	buf.WriteByte(hexDigits[r&0xF])
}

func utf16Pair(r rune) (rune, rune) {
	r -= 0x10000
	return 0xD800 + (r>>10)&0x3FF, 0xDC00 + r&0x3FF
}

// parseJSON decodes a JSON object into a Map, keeping member order and the
// literal text of numbers.
func parseJSON(data []byte) (*Map, error) {
	v, err := parseValue(data)
	if err != nil {
		return nil, NewCodecError(ErrCodeMalformedPayload, "invalid JSON", err)
	}
	m, ok := v.(*Map)
	if !ok || m == nil {
		return nil, NewCodecError(ErrCodeMalformedPayload, "JSON document is not an object", nil)
	}
	return m, nil
}

func parseValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := readValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func readValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		m := NewMap()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, not string", keyTok)
			}
			value, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return m, nil
	case '[':
		items := []any{}
		for dec.More() {
			item, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}
