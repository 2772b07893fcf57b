// Package domain defines the core domain models for docmirror.
package domain

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"
)

// IDField is the distinguished identifier field of a Document.
const IDField = "_id"

// ObjectIDHexLength is the length of the canonical hex form of an ObjectID.
const ObjectIDHexLength = 24

// ObjectID is a 12-byte store-generated document identifier:
// a 4-byte big-endian unix timestamp, 5 bytes of per-process entropy,
// and a 3-byte big-endian counter.
type ObjectID [12]byte

var (
	// objectIDEntropy is the 5-byte per-process random component.
	objectIDEntropy [5]byte

	// objectIDCounter is the 3-byte rolling counter, randomly seeded.
	objectIDCounter atomic.Uint32
)

func init() {
	if _, err := rand.Read(objectIDEntropy[:]); err != nil {
		panic("domain: cannot seed object id entropy: " + err.Error())
	}
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic("domain: cannot seed object id counter: " + err.Error())
	}
	objectIDCounter.Store(binary.BigEndian.Uint32(seed[:]))
}

// NewObjectID generates a fresh ObjectID for the current instant.
func NewObjectID() ObjectID {
	return NewObjectIDFromTime(time.Now())
}

// NewObjectIDFromTime generates an ObjectID with the given timestamp component.
func NewObjectIDFromTime(t time.Time) ObjectID {
	var oid ObjectID
	binary.BigEndian.PutUint32(oid[0:4], uint32(t.Unix()))
	copy(oid[4:9], objectIDEntropy[:])

	n := objectIDCounter.Add(1)
	oid[9] = byte(n >> 16)
	oid[10] = byte(n >> 8)
	oid[11] = byte(n)
	return oid
}

// ParseObjectID parses a 24-character hex string into an ObjectID.
func ParseObjectID(s string) (ObjectID, error) {
	var oid ObjectID
	if len(s) != ObjectIDHexLength {
		return oid, ErrInvalidObjectID.WithDetails(s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return oid, ErrInvalidObjectID.WithDetails(s)
	}
	copy(oid[:], b)
	return oid, nil
}

// IsValidObjectID reports whether s is a valid 24-character hex object id.
func IsValidObjectID(s string) bool {
	_, err := ParseObjectID(s)
	return err == nil
}

// Hex returns the canonical 24-character lowercase hex form.
func (o ObjectID) Hex() string {
	return hex.EncodeToString(o[:])
}

// String implements fmt.Stringer.
func (o ObjectID) String() string {
	return o.Hex()
}

// Timestamp returns the embedded creation time, truncated to seconds.
func (o ObjectID) Timestamp() time.Time {
	return time.Unix(int64(binary.BigEndian.Uint32(o[0:4])), 0).UTC()
}

// MarshalJSON encodes the ObjectID as its canonical hex string, which is
// how identifiers appear in snapshot files.
func (o ObjectID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.Hex() + `"`), nil
}

// UnmarshalJSON decodes a 24-character hex string.
func (o *ObjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	oid, err := ParseObjectID(s)
	if err != nil {
		return err
	}
	*o = oid
	return nil
}

// IDKind distinguishes the native representation of an identifier.
type IDKind int

const (
	// IDKindString is an externally assigned string identifier.
	IDKindString IDKind = iota

	// IDKindObject is a store-generated ObjectID.
	IDKindObject
)

// ID is the identifier of a Document in its native store form.
//
// Snapshot files always carry identifiers as strings; ParseID coerces a
// string back to the native type the live store expects, so lookups succeed
// regardless of how the identifier was serialized. The canonical string
// form (String) is the map key used throughout the diff computation.
type ID struct {
	kind IDKind
	str  string
	oid  ObjectID
}

// ParseID coerces a serialized identifier into its native form.
// A valid 24-character hex string becomes an ObjectID identifier;
// anything else stays a plain string identifier.
func ParseID(s string) ID {
	if oid, err := ParseObjectID(s); err == nil {
		return ID{kind: IDKindObject, str: oid.Hex(), oid: oid}
	}
	return ID{kind: IDKindString, str: s}
}

// IDFromObjectID wraps an ObjectID as an ID.
func IDFromObjectID(oid ObjectID) ID {
	return ID{kind: IDKindObject, str: oid.Hex(), oid: oid}
}

// Kind returns the native representation kind.
func (id ID) Kind() IDKind {
	return id.kind
}

// String returns the canonical string form.
func (id ID) String() string {
	return id.str
}

// ObjectID returns the ObjectID form. Valid only when Kind is IDKindObject.
func (id ID) ObjectID() (ObjectID, bool) {
	return id.oid, id.kind == IDKindObject
}

// Value returns the identifier in the form the live store expects:
// ObjectID for generated ids, string otherwise.
func (id ID) Value() any {
	if id.kind == IDKindObject {
		return id.oid
	}
	return id.str
}

// IsZero reports whether the ID is the zero value (no identifier).
func (id ID) IsZero() bool {
	return id.str == "" && id.kind == IDKindString
}
