package document

import (
	"encoding/json"
)

// SchemaVersion is the canonical document schema version this core speaks
const SchemaVersion = 2

// Top-level document sections
const (
	SectionPost         = "post"
	SectionSEO          = "seo"
	SectionTaxonomies   = "taxonomies"
	SectionCustomFields = "custom_fields"
	SectionMedia        = "media"
	SectionExtensions   = "extensions"
)

// AllowedStatuses defines the post statuses a merged document may carry
var AllowedStatuses = map[string]bool{
	"publish": true,
	"draft":   true,
	"pending": true,
	"private": true,
}

// Document is the canonical representation of a content item: a JSON object
// tree with fixed top-level sections. It is synthesized on demand, mutated
// in memory by Merge, and decomposed back into individual storage writes.
// Explicit nulls inside a patch tree are delete sentinels, distinguishable
// from absent keys.
type Document map[string]any

// Section returns the named top-level section as an object, if present
func (d Document) Section(name string) (map[string]any, bool) {
	v, ok := d[name]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// AsString extracts a string value from a tree leaf
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsInt64 extracts an integer from a tree leaf. JSON decoding produces
// float64, builder code produces int/int64, so all three are accepted.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// AsMap extracts an object from a tree leaf
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// AsSlice extracts an array from a tree leaf
func AsSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// Int64Slice extracts a list of integers from a tree leaf
func Int64Slice(v any) ([]int64, bool) {
	raw, ok := AsSlice(v)
	if !ok {
		return nil, false
	}
	out := make([]int64, 0, len(raw))
	for _, e := range raw {
		n, ok := AsInt64(e)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// StringSlice extracts a list of strings from a tree leaf
func StringSlice(v any) ([]string, bool) {
	raw, ok := AsSlice(v)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		s, ok := AsString(e)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
