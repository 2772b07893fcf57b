// Package domain defines the core domain models for docmirror.
package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spaolacci/murmur3"
)

// CanonicalIndent is the indentation unit of the snapshot file encoding.
const CanonicalIndent = "  "

// CanonicalJSON encodes a value as stable JSON: object keys sorted,
// 2-space indentation, number literals preserved via json.Number.
// Re-encoding an unchanged value always yields byte-identical output.
func CanonicalJSON(v any) ([]byte, error) {
	// encoding/json marshals map keys in sorted order, which together
	// with fixed indentation gives the canonical form.
	data, err := json.MarshalIndent(v, "", CanonicalIndent)
	if err != nil {
		return nil, ErrInternal.WithDetails("canonical encode").WithCause(err)
	}
	return data, nil
}

// EncodeDocuments encodes a document set as a canonical JSON array,
// sorted by identifier string so the output is reproducible regardless
// of the order the store returned the documents in. Documents without
// an identifier keep their relative input order after the keyed ones.
func EncodeDocuments(docs []Document) ([]byte, error) {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aok := sorted[i].ID()
		b, bok := sorted[j].ID()
		if aok != bok {
			return aok
		}
		return a.String() < b.String()
	})
	return CanonicalJSON(sorted)
}

// DecodeDocuments decodes a JSON array of documents, preserving number
// literals as json.Number. A malformed payload yields ErrMalformedSnapshot.
func DecodeDocuments(r io.Reader) ([]Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, ErrMalformedSnapshot.WithCause(err)
	}
	// Reject trailing garbage after the array.
	if dec.More() {
		return nil, ErrMalformedSnapshot.WithDetails("trailing data after document array")
	}

	docs := make([]Document, len(raw))
	for i, m := range raw {
		docs[i] = Document(m)
	}
	return docs, nil
}

// ContentHash returns a 64-bit murmur3 hash of the canonical encoding of
// the document's non-identifier fields. Hash inequality proves content
// inequality; hash equality is always confirmed structurally.
func ContentHash(d Document) (uint64, error) {
	data, err := CanonicalJSON(d.Content())
	if err != nil {
		return 0, err
	}
	return murmur3.Sum64(data), nil
}

// ContentEqual reports whether two documents carry identical non-identifier
// content. Comparison is structural: order-insensitive for object keys,
// order-sensitive for arrays. Number literals compare textually, which is
// exact for values round-tripped through the canonical encoding.
func ContentEqual(a, b Document) bool {
	return valueEqual(map[string]any(a.Content()), map[string]any(b.Content()))
}

func valueEqual(a, b any) bool {
	// Numbers compare by canonical literal so a decoded json.Number and
	// a natively stored Go number with the same encoding are equal, the
	// same relation ContentHash sees.
	if isNumber(a) {
		return isNumber(b) && numberLiteral(a) == numberLiteral(b)
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case ObjectID:
		bv, ok := b.(ObjectID)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := asMap(b)
		if !ok || len(av) != len(bv) {
			return false
		}
		for _, k := range sortedKeys(av) {
			bval, present := bv[k]
			if !present || !valueEqual(av[k], bval) {
				return false
			}
		}
		return true
	case Document:
		return valueEqual(map[string]any(av), b)
	default:
		// Unknown scalar type: fall back to the canonical representation.
		return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number, float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func numberLiteral(v any) string {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CanonicalEqual reports whether two arbitrary decoded values are equal
// under the canonical comparison used by ContentEqual.
func CanonicalEqual(a, b any) bool {
	return valueEqual(a, b)
}
