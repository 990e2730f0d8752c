package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value any
}

// Record is one persisted output document: the extracted field mapping plus
// the injected display name. Fields encode in insertion order.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	return fieldsGet(r, key)
}

// Set replaces the value under key in place, or appends a new field.
func (r Record) Set(key string, value any) Record {
	return fieldsSet(r, key, value)
}

// MarshalJSON encodes r as a JSON object without escaping HTML characters.
func (r Record) MarshalJSON() ([]byte, error) {
	return marshalFields(r)
}

func fieldsGet(fields []Field, key string) (any, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// fieldsSet keeps a key at its first position and takes the latest value,
// which is how JSON.parse treats duplicate keys.
func fieldsSet(fields []Field, key string, value any) []Field {
	for i := range fields {
		if fields[i].Key == key {
			fields[i].Value = value
			return fields
		}
	}
	return append(fields, Field{Key: key, Value: value})
}

func marshalFields(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(f.Key); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(f.Value); err != nil {
			return nil, fmt.Errorf("encode %q: %w", f.Key, err)
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
