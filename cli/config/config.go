// Package config provides configuration management for the patterngen CLI.
package config

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the patterngen manifest
type Config struct {
	// Version of the config file format
	Version string `yaml:"version"`

	// Project configuration
	Project ProjectConfig `yaml:"project"`

	// Generation configuration
	Generation GenerationConfig `yaml:"generation"`

	// Entities to generate accessors for
	Entities []EntityConfig `yaml:"entities"`
}

// ProjectConfig contains project-level settings
type ProjectConfig struct {
	// Name of the project
	Name string `yaml:"name"`

	// Module is the Go module path
	Module string `yaml:"module"`
}

// GenerationConfig contains code generation settings
type GenerationConfig struct {
	// Suffix is appended to the lowercased type name to form the output file
	Suffix string `yaml:"suffix"`
}

// EntityConfig describes one schema-aware entity type.
type EntityConfig struct {
	// Type is the Go type receiving the accessors
	Type string `yaml:"type"`

	// Schema is the JSON or YAML schema file, relative to the manifest
	Schema string `yaml:"schema"`

	// Dir is the package directory, relative to the manifest
	Dir string `yaml:"dir"`

	// Package overrides the package name (default: base of Dir)
	Package string `yaml:"package,omitempty"`

	// Output overrides the generated file name
	Output string `yaml:"output,omitempty"`

	// Receiver overrides the receiver variable name
	Receiver string `yaml:"receiver,omitempty"`
}

// DefaultSuffix is the default generated file suffix.
const DefaultSuffix = "_accessors.go"

// PackageName returns the package clause for the generated file.
func (e EntityConfig) PackageName() string {
	if e.Package != "" {
		return e.Package
	}
	base := filepath.Base(filepath.Clean(e.Dir))
	if base == "." || base == string(filepath.Separator) {
		return "main"
	}
	return strings.ReplaceAll(base, "-", "")
}

// OutputPath returns the generated file path under root.
func (e EntityConfig) OutputPath(root, suffix string) string {
	name := e.Output
	if name == "" {
		if suffix == "" {
			suffix = DefaultSuffix
		}
		name = strings.ToLower(e.Type) + suffix
	}
	return filepath.Join(root, e.Dir, name)
}

// SchemaPath returns the schema file path under root.
func (e EntityConfig) SchemaPath(root string) string {
	if filepath.IsAbs(e.Schema) {
		return e.Schema
	}
	return filepath.Join(root, e.Schema)
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Project: ProjectConfig{
			Name:   "my-pattern-app",
			Module: "github.com/user/my-pattern-app",
		},
		Generation: GenerationConfig{
			Suffix: DefaultSuffix,
		},
	}
}

// ConfigFileName is the default config file name
const ConfigFileName = "patterngen.yaml"

// Load loads configuration from the specified directory
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads configuration from a specific file path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", filepath.Base(path), err)
	}

	return cfg, nil
}

// Save saves the configuration to the specified directory
func (c *Config) Save(dir string) error {
	return c.SaveFile(filepath.Join(dir, ConfigFileName))
}

// SaveFile saves the configuration to a specific file path
func (c *Config) SaveFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Exists checks if a config file exists in the directory
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindConfig searches for a config file starting from dir and going up
func FindConfig(dir string) (string, *Config, error) {
	current := dir
	for {
		configPath := filepath.Join(current, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			cfg, err := LoadFile(configPath)
			if err != nil {
				return "", nil, err
			}
			return current, cfg, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", nil, os.ErrNotExist
		}
		current = parent
	}
}

// Entity returns the entity configured for type name.
func (c *Config) Entity(typeName string) (EntityConfig, bool) {
	for _, e := range c.Entities {
		if e.Type == typeName {
			return e, true
		}
	}
	return EntityConfig{}, false
}

// Validate validates the configuration
func (c *Config) Validate() []string {
	var errors []string

	if c.Project.Name == "" {
		errors = append(errors, "project.name is required")
	}

	if c.Project.Module == "" {
		errors = append(errors, "project.module is required")
	}

	if c.Generation.Suffix != "" && !strings.HasSuffix(c.Generation.Suffix, ".go") {
		errors = append(errors, "generation.suffix must end in .go")
	}

	outputs := make(map[string]string)
	for i, e := range c.Entities {
		prefix := fmt.Sprintf("entities[%d]", i)
		if !token.IsIdentifier(e.Type) || !token.IsExported(e.Type) {
			errors = append(errors, prefix+".type must be an exported Go identifier")
		}
		if e.Schema == "" {
			errors = append(errors, prefix+".schema is required")
		}
		if e.Package != "" && !token.IsIdentifier(e.Package) {
			errors = append(errors, prefix+".package must be a Go identifier")
		}
		if strings.HasSuffix(e.Output, "_test.go") {
			errors = append(errors, prefix+".output must not be a test file")
		}
		out := e.OutputPath("", c.Generation.Suffix)
		if other, dup := outputs[out]; dup {
			errors = append(errors, fmt.Sprintf("%s.output %s is also generated by %s", prefix, out, other))
		}
		outputs[out] = e.Type
	}

	return errors
}

// GenerateYAML generates YAML content with comments
func GenerateYAML(cfg *Config) string {
	var entities strings.Builder
	if len(cfg.Entities) == 0 {
		entities.WriteString(`  # - type: Person
  #   schema: schemas/person.json
  #   dir: internal/person
`)
	}
	for _, e := range cfg.Entities {
		entities.WriteString(`  - type: "` + e.Type + `"
    schema: "` + e.Schema + `"
    dir: "` + e.Dir + `"
`)
		if e.Package != "" {
			entities.WriteString(`    package: "` + e.Package + `"
`)
		}
	}

	return `# patterngen configuration file
# Generates typed field accessors for schema-aware entities

version: "1"

# Project settings
project:
  # Name of your project
  name: "` + cfg.Project.Name + `"

  # Go module path (from go.mod)
  module: "` + cfg.Project.Module + `"

# Code generation settings
generation:
  # Generated file name is <lowercased type><suffix>
  suffix: "` + cfg.Generation.Suffix + `"

# Entities: Go type, schema file (JSON or YAML) and package directory,
# all paths relative to this file
entities:
` + entities.String()
}
