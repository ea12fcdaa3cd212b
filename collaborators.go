package pattern

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"
)

// IdentityGenerator produces globally unique entity identities.
type IdentityGenerator interface {
	NewIdentity() string
}

// UUIDGenerator generates random (v4) UUID identities.
type UUIDGenerator struct{}

// NewIdentity returns a new UUID string.
func (UUIDGenerator) NewIdentity() string {
	return uuid.NewString()
}

// IdentityFunc adapts a function to IdentityGenerator.
type IdentityFunc func() string

// NewIdentity calls f.
func (f IdentityFunc) NewIdentity() string {
	return f()
}

// Differ computes a structural diff between two JSON-like values.
type Differ interface {
	Diff(before, after any) (Patch, error)
}

// JSONDiffer is an RFC 6902 differ producing only add, remove and replace
// operations.
type JSONDiffer struct{}

// Diff compares before and after.
func (JSONDiffer) Diff(before, after any) (Patch, error) {
	ops, err := jsondiff.Compare(before, after)
	if err != nil {
		return nil, fmt.Errorf("pattern: failed to diff: %w", err)
	}
	patch := make(Patch, 0, len(ops))
	for _, op := range ops {
		patch = append(patch, PatchOperation{
			Op:    op.Type,
			Path:  op.Path,
			Value: op.Value,
		})
	}
	return patch, nil
}

// SchemaValidator validates entity data against schemas registered by key.
type SchemaValidator interface {
	AddSchema(key string, schema *jsonschema.Schema) error
	IsValid(key string, data any) bool
	Validate(key string, data any) error
}

// SchemaRegistry is the default SchemaValidator. It is safe for concurrent use.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Resolved
}

// NewSchemaRegistry creates an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]*jsonschema.Resolved)}
}

// DefaultSchemaRegistry is shared by entity types that do not set their own validator.
var DefaultSchemaRegistry = NewSchemaRegistry()

// AddSchema resolves and stores schema under key, replacing any previous one.
func (r *SchemaRegistry) AddSchema(key string, schema *jsonschema.Schema) error {
	if schema == nil {
		return fmt.Errorf("%w: nil schema for %q", ErrInvalidSchema, key)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, key, err)
	}
	r.mu.Lock()
	r.schemas[key] = resolved
	r.mu.Unlock()
	return nil
}

// Validate checks data against the schema registered under key.
func (r *SchemaRegistry) Validate(key string, data any) error {
	r.mu.RLock()
	resolved, ok := r.schemas[key]
	r.mu.RUnlock()
	if !ok {
		return NewValidationError(key, fmt.Errorf("no schema registered"))
	}

	// Normalize to plain JSON values so struct and typed-slice fields
	// validate the same way they would after storage.
	instance, err := toJSONValue(data)
	if err != nil {
		return NewValidationError(key, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return NewValidationError(key, err)
	}
	return nil
}

// IsValid reports whether data satisfies the schema registered under key.
func (r *SchemaRegistry) IsValid(key string, data any) bool {
	return r.Validate(key, data) == nil
}

func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SchemaDefaults builds a document from the defaults declared in schema,
// descending into object properties. Properties without a default and
// without nested defaults are absent from the result.
func SchemaDefaults(schema *jsonschema.Schema) (Document, error) {
	if schema == nil {
		return Document{}, nil
	}
	out := Document{}
	for name, prop := range schema.Properties {
		v, ok, err := schemaDefault(prop)
		if err != nil {
			return nil, fmt.Errorf("%w: default for %q: %v", ErrInvalidSchema, name, err)
		}
		if ok {
			out[name] = v
		}
	}
	return out, nil
}

func schemaDefault(schema *jsonschema.Schema) (any, bool, error) {
	if schema == nil {
		return nil, false, nil
	}
	if len(schema.Default) > 0 {
		var v any
		if err := json.Unmarshal(schema.Default, &v); err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	if len(schema.Properties) == 0 {
		return nil, false, nil
	}
	nested, err := SchemaDefaults(schema)
	if err != nil {
		return nil, false, err
	}
	if len(nested) == 0 {
		return nil, false, nil
	}
	return nested, true, nil
}

// MergeDefaults returns defaults overlaid with data. Supplied values win;
// nested objects are merged key by key.
func MergeDefaults(defaults, data Document) Document {
	out := cloneDocument(defaults)
	for k, v := range data {
		dv, hasDefault := out[k].(Document)
		sv, isDoc := v.(Document)
		if hasDefault && isDoc {
			out[k] = MergeDefaults(dv, sv)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}
