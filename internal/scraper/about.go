package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	aboutMarker  = "about_app_sections"
	addressField = "address"
)

// object is a JSON object that keeps its keys in document order so the
// depth-first search visits them deterministically. A repeated key keeps
// its first position and its last value.
type object []Field

func (o object) get(key string) (any, bool) {
	return fieldsGet(o, key)
}

// MarshalJSON encodes o with its keys in document order.
func (o object) MarshalJSON() ([]byte, error) {
	return marshalFields(o)
}

// parseOrdered decodes raw into nested object, []any, string, json.Number,
// bool, and nil values.
func parseOrdered(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = fieldsSet(obj, key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", rune(delim))
	}
}

// findAboutSections walks node depth first and returns the first
// about_app_sections object with a truthy nodes member.
func findAboutSections(node any) (object, bool) {
	switch n := node.(type) {
	case object:
		if about, ok := n.get(aboutMarker); ok {
			if sections, ok := about.(object); ok {
				if nodes, ok := sections.get("nodes"); ok && truthy(nodes) {
					return sections, true
				}
			}
		}
		for _, m := range n {
			if found, ok := findAboutSections(m.Value); ok {
				return found, true
			}
		}
	case []any:
		for _, v := range n {
			if found, ok := findAboutSections(v); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// firstAboutSections parses each blob in order and returns the first match.
// Blobs that are not valid JSON are skipped.
func firstAboutSections(blobs []string) (object, bool) {
	for _, blob := range blobs {
		parsed, err := parseOrdered(blob)
		if err != nil {
			continue
		}
		if found, ok := findAboutSections(parsed); ok {
			return found, true
		}
	}
	return nil, false
}

// flattenAbout collects field_type -> title.text pairs from the
// section/collection/field hierarchy. Address fields also carry their map
// pin coordinates.
func flattenAbout(about object) Record {
	result := Record{}
	for _, section := range arrayAt(about, "nodes") {
		for _, collection := range arrayAt(objectAt(section, "activeCollections"), "nodes") {
			renderer := objectAt(collection, "style_renderer")
			if renderer == nil {
				continue
			}
			for _, fieldSection := range arrayAt(renderer, "profile_field_sections") {
				for _, field := range arrayAt(objectAt(fieldSection, "profile_fields"), "nodes") {
					result = collectField(result, field)
				}
			}
		}
	}
	return result
}

func collectField(result Record, node any) Record {
	field, ok := node.(object)
	if !ok {
		return result
	}
	fieldType, _ := field.get("field_type")
	value, _ := objectAt(field, "title").get("text")
	if truthy(fieldType) && truthy(value) {
		result = result.Set(keyString(fieldType), value)
	}
	if s, ok := fieldType.(string); !ok || s != addressField {
		return result
	}
	pin, ok := field.get("map_pin_coordinates")
	if !ok || !truthy(pin) {
		return result
	}
	coords, ok := pin.(object)
	if !ok {
		return result
	}
	if lat, ok := coords.get("latitude"); ok {
		result = result.Set("latitude", lat)
	}
	if lng, ok := coords.get("longitude"); ok {
		result = result.Set("longitude", lng)
	}
	return result
}

func objectAt(node any, key string) object {
	obj, ok := node.(object)
	if !ok {
		return nil
	}
	v, ok := obj.get(key)
	if !ok {
		return nil
	}
	child, _ := v.(object)
	return child
}

func arrayAt(obj object, key string) []any {
	v, ok := obj.get(key)
	if !ok {
		return nil
	}
	arr, _ := v.([]any)
	return arr
}

// truthy mirrors JavaScript truthiness for decoded JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

func keyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
