package codegen

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "properties": {
    "firstname": {"type": "string", "default": "Alice", "description": "Given name."},
    "lastname": {"type": "string"},
    "age": {"type": "integer"},
    "height": {"type": "number"},
    "active": {"type": "boolean"},
    "address": {"type": "object", "properties": {"city": {"type": "string"}}},
    "tags": {"type": "array", "items": {"type": "string"}},
    "nickname": {"type": ["null", "string"]},
    "extra": {},
    "_hidden": {"type": "string"}
  }
}`

const personYAML = `
type: object
properties:
  firstname:
    type: string
    default: Alice
  user_id:
    type: integer
`

func mustSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	s, err := ParseSchema([]byte(personSchema))
	require.NoError(t, err)
	return s
}

// =============================================================================
// Schema Loading
// =============================================================================

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "person.json")
		require.NoError(t, os.WriteFile(path, []byte(personSchema), 0o644))

		s, err := LoadSchema(path)

		require.NoError(t, err)
		assert.Len(t, s.Properties, 10)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "person.yaml")
		require.NoError(t, os.WriteFile(path, []byte(personYAML), 0o644))

		s, err := LoadSchema(path)

		require.NoError(t, err)
		require.Contains(t, s.Properties, "user_id")
		assert.Equal(t, "integer", s.Properties["user_id"].Type)
		assert.JSONEq(t, `"Alice"`, string(s.Properties["firstname"].Default))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSchema(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseSchema([]byte("{"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseYAMLSchema([]byte("type: [unclosed"))
		assert.Error(t, err)
	})
}

// =============================================================================
// Field Mapping
// =============================================================================

func TestFields(t *testing.T) {
	fields, err := Fields(mustSchema(t))
	require.NoError(t, err)

	types := make(map[string]string, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		types[f.Key] = f.GoType
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{"Active", "Address", "Age", "Extra", "Firstname", "Height", "Lastname", "Nickname", "Tags"}, names)
	assert.Equal(t, map[string]string{
		"active":    "bool",
		"address":   "pattern.Document",
		"age":       "int64",
		"extra":     "any",
		"firstname": "string",
		"height":    "float64",
		"lastname":  "string",
		"nickname":  "string",
		"tags":      "[]any",
	}, types)
	assert.Equal(t, "Given name.", fields[4].Description)
}

func TestFields_Errors(t *testing.T) {
	t.Run("no properties", func(t *testing.T) {
		_, err := Fields(&jsonschema.Schema{Type: "object"})
		assert.ErrorIs(t, err, ErrNoProperties)

		_, err = Fields(nil)
		assert.ErrorIs(t, err, ErrNoProperties)
	})

	t.Run("colliding names", func(t *testing.T) {
		s := &jsonschema.Schema{Properties: map[string]*jsonschema.Schema{
			"first_name": {Type: "string"},
			"first-name": {Type: "string"},
		}}
		_, err := Fields(s)
		assert.ErrorContains(t, err, "both map to FirstName")
	})
}

func TestGoName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"firstname", "Firstname"},
		{"first_name", "FirstName"},
		{"zip-code", "ZipCode"},
		{"user_id", "UserID"},
		{"2fa", "F2fa"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, GoName(tt.key))
		})
	}
}

// =============================================================================
// Existing Methods
// =============================================================================

func TestExistingMethods(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person.go"), []byte(`package person

type Person struct{}

func (p *Person) Lastname() string { return "custom" }
func (p Person) SetAge(v int64) {}
func (o *Other) Firstname() string { return "" }
func Firstname() string { return "" }
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person_accessors.go"), []byte(`package person

func (p *Person) Height() float64 { return 0 }
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person_test.go"), []byte(`package person

func (p *Person) Active() bool { return true }
`), 0o644))

	methods, err := ExistingMethods(dir, "Person", "person_accessors.go")

	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Lastname": true, "SetAge": true}, methods)
}

func TestExistingMethods_ParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package"), 0o644))

	_, err := ExistingMethods(dir, "Person")

	assert.ErrorContains(t, err, "broken.go")
}

// =============================================================================
// Generation
// =============================================================================

func TestGenerate(t *testing.T) {
	result, err := Generate(Options{
		Package:  "person",
		TypeName: "Person",
		Schema:   mustSchema(t),
		Existing: map[string]bool{"Lastname": true, "SetAge": true},
	})
	require.NoError(t, err)

	src := string(result.Source)

	assert.Contains(t, src, Header)
	assert.Contains(t, src, "package person")
	assert.Contains(t, src, `"github.com/AshkanYarmoradi/go-pattern"`)
	assert.Contains(t, src, "func (p *Person) Firstname() string {")
	assert.Contains(t, src, `pattern.Convert[string](p.Get("firstname"))`)
	assert.Contains(t, src, "func (p *Person) SetFirstname(v string) {")
	assert.Contains(t, src, "// Firstname returns the firstname field (given name).\nfunc (p *Person) Firstname() string {")
	assert.Contains(t, src, "// Age returns the age field.\n")
	assert.Contains(t, src, "func (p *Person) Address() pattern.Document {")
	assert.Contains(t, src, "func (p *Person) Age() int64 {")
	assert.NotContains(t, src, "SetAge(")
	assert.NotContains(t, src, "Lastname()")
	assert.Contains(t, src, "SetLastname(v string)")
	assert.NotContains(t, src, "_hidden")
	assert.ElementsMatch(t, []string{"Lastname", "SetAge"}, result.Skipped)

	_, err = parser.ParseFile(token.NewFileSet(), "person_accessors.go", result.Source, parser.ParseComments)
	assert.NoError(t, err)
}

func TestGenerate_ReservedNames(t *testing.T) {
	s := &jsonschema.Schema{Properties: map[string]*jsonschema.Schema{
		"type":  {Type: "string"},
		"title": {Type: "string"},
	}}

	result, err := Generate(Options{Package: "doc", TypeName: "Doc", Receiver: "d", Schema: s})

	require.NoError(t, err)
	assert.NotContains(t, string(result.Source), "Type()")
	assert.Contains(t, string(result.Source), "func (d *Doc) Title() string {")
	assert.Equal(t, []string{"Type", "SetType"}, result.Skipped)
}

func TestGenerate_AllExisting(t *testing.T) {
	s := &jsonschema.Schema{Properties: map[string]*jsonschema.Schema{"title": {Type: "string"}}}

	result, err := Generate(Options{
		Package:  "doc",
		TypeName: "Doc",
		Schema:   s,
		Existing: map[string]bool{"Title": true, "SetTitle": true},
	})

	require.NoError(t, err)
	assert.Empty(t, result.Fields)
	assert.NotContains(t, string(result.Source), "go-pattern")
}

func TestGenerate_Errors(t *testing.T) {
	schema := mustSchema(t)

	_, err := Generate(Options{TypeName: "Person", Schema: schema})
	assert.ErrorContains(t, err, "package name is required")

	_, err = Generate(Options{Package: "p", TypeName: "not valid", Schema: schema})
	assert.ErrorContains(t, err, "invalid type name")

	_, err = Generate(Options{Package: "p", TypeName: "Person"})
	assert.ErrorIs(t, err, ErrNoProperties)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person.go"), []byte(`package person

type Person struct{}

func (p *Person) Firstname() string { return "custom" }
`), 0o644))

	out := filepath.Join(dir, "person_accessors.go")
	// A stale generated file must not hide its own accessors.
	require.NoError(t, os.WriteFile(out, []byte(`package person

func (p *Person) Lastname() string { return "" }
`), 0o644))

	result, err := WriteFile(out, Options{Package: "person", TypeName: "Person", Schema: mustSchema(t)})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, result.Source, data)
	assert.Contains(t, string(data), "func (p *Person) Lastname() string {")
	assert.NotContains(t, string(data), "Firstname() string")
	assert.Contains(t, string(data), "SetFirstname(v string)")
}

func TestField_GetterDoc(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"", "Email returns the email field."},
		{"Given name.", "Email returns the email field (given name)."},
		{"URL of the avatar", "Email returns the email field (URL of the avatar)."},
		{"x", "Email returns the email field (x)."},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			f := Field{Key: "email", Name: "Email", Description: tt.description}
			assert.Equal(t, tt.want, f.GetterDoc())
		})
	}
}
