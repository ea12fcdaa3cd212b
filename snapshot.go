package pattern

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Reserved keys used in the flat representation of an entity.
const (
	VersionKey  = "_version"
	IdentityKey = "_uuid"
)

// Document is a JSON-like object holding domain fields.
type Document = map[string]any

// Snapshot is an immutable, versioned baseline of an entity's data.
//
// Snapshot is a value type. Its fields are copied on the way in and on the
// way out, so holders can never mutate a snapshot in place.
type Snapshot struct {
	version   int64
	identity  string
	fields    Document
	versioned bool
}

// NewSnapshot creates an unversioned snapshot from fields. When installed on
// an entity it inherits the entity's current version and identity.
func NewSnapshot(fields Document) Snapshot {
	return Snapshot{fields: cloneDocument(fields)}
}

// SnapshotOf creates a snapshot with an explicit version and identity.
// An empty identity is filled in when the snapshot is installed.
func SnapshotOf(version int64, identity string, fields Document) Snapshot {
	return Snapshot{
		version:   version,
		identity:  identity,
		fields:    cloneDocument(fields),
		versioned: true,
	}
}

// SnapshotFromRepresentation splits a flat representation carrying the
// reserved _version and _uuid keys into a Snapshot.
func SnapshotFromRepresentation(doc Document) (Snapshot, error) {
	fields := cloneDocument(doc)
	s := Snapshot{}

	if raw, ok := fields[VersionKey]; ok {
		v, err := Convert[int64](raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("pattern: invalid %s: %w", VersionKey, err)
		}
		s.version = v
		s.versioned = true
		delete(fields, VersionKey)
	}
	if raw, ok := fields[IdentityKey]; ok {
		id, ok := raw.(string)
		if !ok {
			return Snapshot{}, fmt.Errorf("pattern: invalid %s: %T", IdentityKey, raw)
		}
		s.identity = id
		delete(fields, IdentityKey)
	}
	s.fields = fields
	return s, nil
}

// Version returns the snapshot version.
func (s Snapshot) Version() int64 {
	return s.version
}

// Identity returns the entity identity, or "" if not yet assigned.
func (s Snapshot) Identity() string {
	return s.identity
}

// Versioned reports whether the snapshot carries an explicit version.
func (s Snapshot) Versioned() bool {
	return s.versioned
}

// Fields returns a copy of the domain fields.
func (s Snapshot) Fields() Document {
	return cloneDocument(s.fields)
}

// Field returns a copy of a single domain field.
func (s Snapshot) Field(name string) (any, bool) {
	v, ok := s.fields[name]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Len returns the number of domain fields.
func (s Snapshot) Len() int {
	return len(s.fields)
}

// IsZero reports whether the snapshot is empty and unversioned.
func (s Snapshot) IsZero() bool {
	return !s.versioned && s.identity == "" && len(s.fields) == 0
}

// Representation returns the flat form {_version, _uuid, ...fields}.
func (s Snapshot) Representation() Document {
	doc := cloneDocument(s.fields)
	doc[VersionKey] = s.version
	doc[IdentityKey] = s.identity
	return doc
}

// MarshalJSON encodes the snapshot in its flat representation.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Representation())
}

// UnmarshalJSON decodes a flat representation.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	decoded, err := SnapshotFromRepresentation(doc)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

func cloneDocument(doc Document) Document {
	if doc == nil {
		return Document{}
	}
	return cloneValue(doc).(Document)
}

// cloneValue copies maps, slices and arrays recursively. Every other value,
// pointers and structs included, is kept as is: structs may hold unexported
// state that only their own package can copy.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Document:
		out := make(Document, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case Args:
		if t == nil {
			return t
		}
		return Args(cloneValue([]any(t)).([]any))
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

func cloneReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), v.Type().Elem()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i), v.Type().Elem()))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i), v.Type().Elem()))
		}
		return out
	}
	return v
}

func cloneElem(v reflect.Value, elem reflect.Type) reflect.Value {
	if v.Kind() != reflect.Interface {
		return cloneReflect(v)
	}
	if v.IsNil() {
		return reflect.Zero(elem)
	}
	return reflect.ValueOf(cloneValue(v.Interface()))
}
