// Package domain defines the core domain models for docmirror.
package domain

import "encoding/json"

// Document is one schemaless record of a collection: a mapping from field
// name to arbitrary value. Values are the JSON shapes produced by decoding
// with json.Number fidelity: nil, bool, json.Number, string, []any and
// map[string]any, plus ObjectID for native identifiers.
//
// The IDField entry, when present, is the unique immutable identifier of
// the document within its collection.
type Document map[string]any

// ID extracts the document identifier in native form.
// Returns ok=false when the identifier field is absent or not a scalar
// the store can key on; such documents are excluded from reconciliation.
func (d Document) ID() (ID, bool) {
	v, present := d[IDField]
	if !present {
		return ID{}, false
	}
	switch id := v.(type) {
	case string:
		return ParseID(id), true
	case ObjectID:
		return IDFromObjectID(id), true
	case json.Number:
		return ID{kind: IDKindString, str: id.String()}, true
	default:
		return ID{}, false
	}
}

// Content returns the non-identifier fields of the document.
// The returned map shares nested values with the original.
func (d Document) Content() Document {
	content := make(Document, len(d))
	for k, v := range d {
		if k == IDField {
			continue
		}
		content[k] = v
	}
	return content
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	return cloneValue(d).(Document)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		out := make(Document, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		// Scalars (string, bool, json.Number, ObjectID, nil) are immutable.
		return val
	}
}

// Set returns a copy of the document with the given field set.
func (d Document) Set(field string, value any) Document {
	out := d.Clone()
	out[field] = value
	return out
}
