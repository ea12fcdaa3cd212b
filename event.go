package pattern

import "time"

// Event is a versioned record of an operation applied since the last snapshot.
type Event struct {
	Operation string    `json:"operation" msgpack:"operation"`
	Args      Args      `json:"args" msgpack:"args"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
	Version   int64     `json:"version" msgpack:"version"`
}

// Patch operation kinds.
const (
	PatchAdd     = "add"
	PatchRemove  = "remove"
	PatchReplace = "replace"
)

// PatchOperation is a single RFC 6902 operation.
type PatchOperation struct {
	Op    string `json:"op" msgpack:"op"`
	Path  string `json:"path" msgpack:"path"`
	Value any    `json:"value,omitempty" msgpack:"value,omitempty"`
}

// Patch is a structural diff between two representations.
type Patch []PatchOperation

// Empty reports whether the patch has no operations.
func (p Patch) Empty() bool {
	return len(p) == 0
}

// Record is the persisted shape of an entity produced by BuildSnapshot.
// Storage and transport layers round-trip entities through it.
type Record struct {
	Version  int64    `json:"version" msgpack:"version"`
	Identity string   `json:"identity" msgpack:"identity"`
	Type     string   `json:"type,omitempty" msgpack:"type,omitempty"`
	Snapshot Document `json:"snapshot" msgpack:"snapshot"`
	Events   []Event  `json:"events" msgpack:"events"`
	Patch    Patch    `json:"patch" msgpack:"patch"`
}

// SnapshotValue returns the record's snapshot as a Snapshot value.
func (r Record) SnapshotValue() Snapshot {
	return SnapshotOf(r.Version, r.Identity, r.Snapshot)
}
