// Package jsontree holds a small tagged-variant representation of a JSON
// document. Object members keep their document order so that walks over
// scraped payloads are deterministic.
package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies which variant a Value holds
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Member is one key/value pair of an Object
type Member struct {
	Key   string
	Value *Value
}

// Value is a node of a parsed JSON document.
//
// All accessors are safe on a nil *Value, which stands for "absent". This lets
// callers chain lookups such as v.Path("price", "amount").Text() without
// checking every step.
type Value struct {
	kind    Kind
	boolean bool
	text    string // string contents, or the literal number text
	items   []*Value
	members []Member
}

// Kind returns the variant of v. An absent value reports Null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

// IsNull reports whether v is absent or JSON null
func (v *Value) IsNull() bool {
	return v == nil || v.kind == Null
}

// Get returns the member named key, or nil when v is not an object or has no
// such member.
func (v *Value) Get(key string) *Value {
	if v == nil || v.kind != Object {
		return nil
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// Path follows a chain of object keys
func (v *Value) Path(keys ...string) *Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Index returns the i-th array element, or nil when out of range
func (v *Value) Index(i int) *Value {
	if v == nil || v.kind != Array || i < 0 || i >= len(v.items) {
		return nil
	}
	return v.items[i]
}

// Len is the number of array elements or object members
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	}
	return 0
}

// Items returns the elements of an array
func (v *Value) Items() []*Value {
	if v == nil || v.kind != Array {
		return nil
	}
	return v.items
}

// Members returns the members of an object in document order
func (v *Value) Members() []Member {
	if v == nil || v.kind != Object {
		return nil
	}
	return v.members
}

// Text renders a scalar as text. Numbers keep their literal form so prices
// survive untouched. Null, absent, arrays and objects report false.
func (v *Value) Text() (string, bool) {
	if v == nil {
		return "", false
	}
	switch v.kind {
	case String, Number:
		return v.text, true
	case Bool:
		return strconv.FormatBool(v.boolean), true
	}
	return "", false
}

// String returns the text of a scalar, or "" when there is none
func (v *Value) String() string {
	s, _ := v.Text()
	return s
}

// Strings collects the text of every scalar element of an array
func (v *Value) Strings() []string {
	var out []string
	for _, it := range v.Items() {
		if s, ok := it.Text(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Walk visits every object member beneath v depth-first in document order,
// calling fn with the member key and value before descending into the value.
// Array elements are descended into but not reported themselves.
func (v *Value) Walk(fn func(key string, val *Value)) {
	switch v.Kind() {
	case Object:
		for _, m := range v.members {
			fn(m.Key, m.Value)
			m.Value.Walk(fn)
		}
	case Array:
		for _, it := range v.items {
			it.Walk(fn)
		}
	}
}

// MarshalJSON writes v back out as JSON
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer) error {
	switch v.Kind() {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case Number:
		buf.WriteString(v.text)
	case String:
		b, err := json.Marshal(v.text)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Array:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// Parse decodes a single JSON document
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("jsontree: unexpected data after top-level value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("jsontree: %w", err)
	}
	return fromToken(dec, tok)
}

func fromToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return &Value{kind: Null}, nil
	case bool:
		return &Value{kind: Bool, boolean: t}, nil
	case json.Number:
		return &Value{kind: Number, text: t.String()}, nil
	case string:
		return &Value{kind: String, text: t}, nil
	case json.Delim:
		switch t {
		case '[':
			arr := &Value{kind: Array}
			for dec.More() {
				it, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, it)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("jsontree: %w", err)
			}
			return arr, nil
		case '{':
			obj := &Value{kind: Object}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("jsontree: %w", err)
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("jsontree: object key is %T", kt)
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				obj.members = append(obj.members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("jsontree: %w", err)
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("jsontree: unexpected token %v", tok)
}
