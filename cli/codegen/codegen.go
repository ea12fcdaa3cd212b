// Package codegen generates typed field accessors for schema-aware entities.
//
// For every top-level property of an entity schema the generator emits a
// getter and a setter on the entity type:
//
//	func (p *Person) Firstname() string
//	func (p *Person) SetFirstname(v string)
//
// Methods already declared on the type in its package are never generated,
// so hand-written accessors always win.
package codegen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/google/jsonschema-go/jsonschema"
	"golang.org/x/tools/imports"
	"gopkg.in/yaml.v3"
)

// Header marks generated files.
const Header = "// Code generated by patterngen. DO NOT EDIT."

// ErrNoProperties is returned when a schema declares no properties.
var ErrNoProperties = errors.New("codegen: schema has no properties")

// Methods promoted from pattern.Entity. A field whose accessor would collide
// with one of them is skipped.
var reservedMethods = map[string]bool{
	"Access": true, "Bind": true, "BuildSnapshot": true, "Commands": true,
	"Configure": true, "Data": true, "Events": true, "Execute": true,
	"Get": true, "Identity": true, "Init": true, "IsValid": true,
	"Mutate": true, "OnExecute": true, "OnPushed": true, "PatchAgainst": true,
	"PatchAgainstSnapshot": true, "Push": true, "Redo": true, "Replay": true,
	"Replaying": true, "Representation": true, "Schema": true, "Set": true,
	"SetType": true, "Snapshot": true, "Type": true, "Undo": true,
	"Validate": true, "Version": true,
}

// Field describes one generated accessor pair.
type Field struct {
	// Key is the property name in the schema and the working data.
	Key string
	// Name is the exported Go name derived from Key.
	Name string
	// GoType is the Go type of the accessor.
	GoType      string
	Description string
	Getter      bool
	Setter      bool
}

// SetterName returns the setter method name.
func (f Field) SetterName() string {
	return "Set" + f.Name
}

// GetterDoc returns the getter's doc sentence, with the schema description
// folded in as a parenthetical.
func (f Field) GetterDoc() string {
	doc := f.Name + " returns the " + f.Key + " field"
	desc := strings.TrimRight(f.Description, ". ")
	if desc == "" {
		return doc + "."
	}
	return doc + " (" + lowerFirst(desc) + ")."
}

// lowerFirst lowercases a leading capital unless it starts an acronym.
func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) > 1 && unicode.IsUpper(r[0]) && !unicode.IsUpper(r[1]) {
		r[0] = unicode.ToLower(r[0])
	}
	return string(r)
}

// LoadSchema reads a JSON or YAML schema file. The format is chosen by
// extension; .yaml and .yml are YAML, everything else JSON.
func LoadSchema(path string) (*jsonschema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codegen: failed to read schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAMLSchema(data)
	default:
		return ParseSchema(data)
	}
}

// ParseSchema decodes a JSON schema document.
func ParseSchema(data []byte) (*jsonschema.Schema, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("codegen: invalid schema: %w", err)
	}
	return &schema, nil
}

// ParseYAMLSchema decodes a YAML schema document.
func ParseYAMLSchema(data []byte) (*jsonschema.Schema, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("codegen: invalid yaml schema: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("codegen: invalid yaml schema: %w", err)
	}
	return ParseSchema(raw)
}

// Fields lists the accessor fields of schema in key order. Keys starting
// with an underscore are reserved and skipped.
func Fields(schema *jsonschema.Schema) ([]Field, error) {
	if schema == nil || len(schema.Properties) == 0 {
		return nil, ErrNoProperties
	}

	keys := make([]string, 0, len(schema.Properties))
	for key := range schema.Properties {
		if strings.HasPrefix(key, "_") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		name := GoName(key)
		if name == "" {
			continue
		}
		if other, dup := seen[name]; dup {
			return nil, fmt.Errorf("codegen: properties %q and %q both map to %s", other, key, name)
		}
		seen[name] = key

		prop := schema.Properties[key]
		fields = append(fields, Field{
			Key:         key,
			Name:        name,
			GoType:      GoType(prop),
			Description: describe(prop),
			Getter:      true,
			Setter:      true,
		})
	}
	return fields, nil
}

func describe(s *jsonschema.Schema) string {
	if s == nil {
		return ""
	}
	return strings.Join(strings.Fields(s.Description), " ")
}

// GoType maps a property schema to the Go type used by its accessors.
func GoType(s *jsonschema.Schema) string {
	if s == nil {
		return "any"
	}
	typ := s.Type
	if typ == "" {
		for _, t := range s.Types {
			if t != "null" {
				typ = t
				break
			}
		}
	}
	switch typ {
	case "string":
		return "string"
	case "integer":
		return "int64"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "pattern.Document"
	case "array":
		return "[]any"
	default:
		return "any"
	}
}

// GoName converts a property key such as "first_name" or "zip-code" into an
// exported Go identifier. It returns "" when nothing usable remains.
func GoName(key string) string {
	var b strings.Builder
	upper := true
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteString("F")
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	return name
}

// ExistingMethods returns the names of methods declared on typeName by the
// Go files in dir. Test files and the files named in skip are ignored.
func ExistingMethods(dir, typeName string, skip ...string) (map[string]bool, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}

	ignored := make(map[string]bool, len(skip))
	for _, s := range skip {
		ignored[filepath.Base(s)] = true
	}

	fset := token.NewFileSet()
	methods := make(map[string]bool)
	for _, path := range paths {
		base := filepath.Base(path)
		if ignored[base] || strings.HasSuffix(base, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("codegen: failed to parse %s: %w", base, err)
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
				continue
			}
			if receiverType(fn.Recv.List[0].Type) == typeName {
				methods[fn.Name.Name] = true
			}
		}
	}
	return methods, nil
}

func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	}
	return ""
}

// Options describes one generated accessor file.
type Options struct {
	// Package is the package clause of the generated file.
	Package string
	// TypeName is the entity type receiving the accessors.
	TypeName string
	// Receiver is the receiver variable. Defaults to the lowercased first
	// letter of TypeName.
	Receiver string
	// Schema is the entity schema.
	Schema *jsonschema.Schema
	// Existing holds methods already declared on the type.
	Existing map[string]bool
	// Filename is used for import processing and error messages.
	Filename string
}

// Result is a generated file and the accessors left out of it.
type Result struct {
	Source  []byte
	Fields  []Field
	Skipped []string
}

// Generate renders the accessor file for opts.
func Generate(opts Options) (*Result, error) {
	if opts.Package == "" {
		return nil, fmt.Errorf("codegen: package name is required")
	}
	if opts.TypeName == "" || !token.IsIdentifier(opts.TypeName) {
		return nil, fmt.Errorf("codegen: invalid type name %q", opts.TypeName)
	}
	if opts.Receiver == "" {
		opts.Receiver = strings.ToLower(opts.TypeName[:1])
	}
	if opts.Filename == "" {
		opts.Filename = strings.ToLower(opts.TypeName) + "_accessors.go"
	}

	fields, err := Fields(opts.Schema)
	if err != nil {
		return nil, err
	}

	var skipped []string
	kept := fields[:0]
	for _, f := range fields {
		if reservedMethods[f.Name] || reservedMethods[f.SetterName()] {
			skipped = append(skipped, f.Name, f.SetterName())
			continue
		}
		if opts.Existing[f.Name] {
			f.Getter = false
			skipped = append(skipped, f.Name)
		}
		if opts.Existing[f.SetterName()] {
			f.Setter = false
			skipped = append(skipped, f.SetterName())
		}
		if f.Getter || f.Setter {
			kept = append(kept, f)
		}
	}

	var buf bytes.Buffer
	if err := accessorTemplate.Execute(&buf, struct {
		Options
		Header string
		Fields []Field
	}{opts, Header, kept}); err != nil {
		return nil, fmt.Errorf("codegen: failed to render: %w", err)
	}

	src, err := imports.Process(opts.Filename, buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("codegen: failed to format %s: %w", opts.Filename, err)
	}

	return &Result{Source: src, Fields: kept, Skipped: skipped}, nil
}

// WriteFile generates and writes the accessor file at path, scanning the
// file's directory for existing methods first.
func WriteFile(path string, opts Options) (*Result, error) {
	existing, err := ExistingMethods(filepath.Dir(path), opts.TypeName, path)
	if err != nil {
		return nil, err
	}
	if opts.Existing == nil {
		opts.Existing = existing
	} else {
		for name := range existing {
			opts.Existing[name] = true
		}
	}
	opts.Filename = path

	result, err := Generate(opts)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, result.Source, 0o644); err != nil {
		return nil, fmt.Errorf("codegen: failed to write %s: %w", path, err)
	}
	return result, nil
}

var accessorTemplate = template.Must(template.New("accessors").Parse(`{{.Header}}

package {{.Package}}

import "github.com/AshkanYarmoradi/go-pattern"

{{range .Fields}}{{if .Getter}}
// {{.GetterDoc}}
func ({{$.Receiver}} *{{$.TypeName}}) {{.Name}}() {{.GoType}} {
	v, _ := pattern.Convert[{{.GoType}}]({{$.Receiver}}.Get({{printf "%q" .Key}}))
	return v
}
{{end}}{{if .Setter}}
// {{.SetterName}} sets the {{.Key}} field.
func ({{$.Receiver}} *{{$.TypeName}}) {{.SetterName}}(v {{.GoType}}) {
	{{$.Receiver}}.Set({{printf "%q" .Key}}, v)
}
{{end}}{{end}}`))
