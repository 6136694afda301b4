package sleepy

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/kbukum/sleepy/errors"
)

// Params is an ordered mapping from option name to value.
// The zero value is ready to use; a nil *Params encodes to "".
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams builds Params from alternating key/value pairs.
func NewParams(kvs ...any) *Params {
	p := &Params{}
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			continue
		}
		p.Set(key, kvs[i+1])
	}
	return p
}

// Set assigns value to key. A key set twice keeps its first position.
func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Len returns the number of keys.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Encode joins key=value pairs with '&' in insertion order. Structured
// values become percent-encoded JSON, scalars are written verbatim.
// An unencodable value yields an ENCODE_FAILED error.
func (p *Params) Encode() (string, error) {
	if p.Len() == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, key := range p.keys {
		v, err := EncodeValue(key, p.values[key])
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String(), nil
}

// EncodeValue serializes a single option value.
func EncodeValue(key string, value any) (string, error) {
	if !IsStructured(value) {
		return fmt.Sprint(value), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", errors.EncodeFailed(key, err)
	}
	return escape(string(data)), nil
}

// IsStructured reports whether value is serialized as JSON. nil counts as
// structured and encodes to "null".
func IsStructured(value any) bool {
	if value == nil {
		return true
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return true
	default:
		return false
	}
}

// escape percent-encodes s, spaces included, so it survives both query
// strings and form bodies.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
