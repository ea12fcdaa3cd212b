package pattern

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator(t *testing.T) {
	id := UUIDGenerator{}.NewIdentity()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.NotEqual(t, id, UUIDGenerator{}.NewIdentity())
}

func TestIdentityFunc(t *testing.T) {
	n := 0
	gen := IdentityFunc(func() string {
		n++
		return "id"
	})

	assert.Equal(t, "id", gen.NewIdentity())
	assert.Equal(t, 1, n)
}

func TestJSONDiffer(t *testing.T) {
	t.Run("identical documents", func(t *testing.T) {
		patch, err := JSONDiffer{}.Diff(Document{"a": 1}, Document{"a": 1})
		require.NoError(t, err)
		assert.True(t, patch.Empty())
	})

	t.Run("add remove and replace", func(t *testing.T) {
		patch, err := JSONDiffer{}.Diff(
			Document{"keep": 1, "drop": true, "change": "old"},
			Document{"keep": 1, "change": "new", "extra": []any{1}},
		)
		require.NoError(t, err)

		ops := map[string]string{}
		for _, op := range patch {
			ops[op.Path] = op.Op
		}
		assert.Equal(t, map[string]string{
			"/drop":   PatchRemove,
			"/change": PatchReplace,
			"/extra":  PatchAdd,
		}, ops)
	})

	t.Run("unsupported value", func(t *testing.T) {
		_, err := JSONDiffer{}.Diff(Document{}, Document{"ch": make(chan int)})
		assert.Error(t, err)
	})
}

func TestSchemaRegistry(t *testing.T) {
	schema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name": {Type: "string"},
			"age":  {Type: "integer"},
		},
	}

	r := NewSchemaRegistry()
	require.NoError(t, r.AddSchema("thing", schema))

	t.Run("valid document", func(t *testing.T) {
		assert.NoError(t, r.Validate("thing", Document{"name": "x", "age": 3}))
		assert.True(t, r.IsValid("thing", Document{"name": "x"}))
	})

	t.Run("invalid document", func(t *testing.T) {
		err := r.Validate("thing", Document{"age": "old"})

		assert.ErrorIs(t, err, ErrValidationFailed)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "thing", validationErr.Type)
		assert.False(t, r.IsValid("thing", Document{"age": "old"}))
	})

	t.Run("struct input is normalised", func(t *testing.T) {
		type thing struct {
			Name string `json:"name"`
			Age  int    `json:"age"`
		}
		assert.NoError(t, r.Validate("thing", thing{Name: "x", Age: 3}))
	})

	t.Run("unknown key", func(t *testing.T) {
		assert.ErrorIs(t, r.Validate("missing", Document{}), ErrValidationFailed)
	})

	t.Run("nil schema", func(t *testing.T) {
		assert.ErrorIs(t, r.AddSchema("nil", nil), ErrInvalidSchema)
	})

	t.Run("concurrent use", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.AddSchema("thing", schema)
				_ = r.IsValid("thing", Document{"name": "x"})
			}()
		}
		wg.Wait()
	})
}

func TestSchemaDefaults(t *testing.T) {
	t.Run("nil schema", func(t *testing.T) {
		defaults, err := SchemaDefaults(nil)
		require.NoError(t, err)
		assert.Empty(t, defaults)
	})

	t.Run("skips objects without nested defaults", func(t *testing.T) {
		defaults, err := SchemaDefaults(&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"count": {Type: "integer", Default: json.RawMessage(`3`)},
				"meta": {
					Type:       "object",
					Properties: map[string]*jsonschema.Schema{"note": {Type: "string"}},
				},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, Document{"count": float64(3)}, defaults)
	})

	t.Run("object default wins over nested defaults", func(t *testing.T) {
		defaults, err := SchemaDefaults(&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"meta": {
					Type:    "object",
					Default: json.RawMessage(`{"note":"top"}`),
					Properties: map[string]*jsonschema.Schema{
						"note": {Type: "string", Default: json.RawMessage(`"nested"`)},
					},
				},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, Document{"meta": map[string]any{"note": "top"}}, defaults)
	})
}

func TestMergeDefaults(t *testing.T) {
	defaults := Document{
		"name":    "anon",
		"address": Document{"city": "Paris", "country": "France"},
	}

	merged := MergeDefaults(defaults, Document{
		"address": Document{"city": "Lyon"},
		"age":     30,
	})

	assert.Equal(t, Document{
		"name":    "anon",
		"age":     30,
		"address": Document{"city": "Lyon", "country": "France"},
	}, merged)

	t.Run("inputs are untouched", func(t *testing.T) {
		assert.Equal(t, "Paris", defaults["address"].(Document)["city"])
	})

	t.Run("non-object overrides object", func(t *testing.T) {
		merged := MergeDefaults(defaults, Document{"address": "unknown"})
		assert.Equal(t, "unknown", merged["address"])
	})

	t.Run("nil inputs", func(t *testing.T) {
		assert.Equal(t, Document{}, MergeDefaults(nil, nil))
	})
}
