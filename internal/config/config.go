// Package config loads the per-package generator configuration.
//
// A package directory may hold a validdecode.yaml:
//
//	output: validdecode_gen.go
//	formats: [json, yaml]
//	types: [Person, Value]
//	prefix: validdecode
//
// Every key is optional. Command-line flags override the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/validdecode/internal/gen"
	"github.com/reoring/validdecode/internal/shape"
)

// FileName is the configuration file looked up in the package directory.
const FileName = "validdecode.yaml"

// DefaultOutput is the generated file name when none is configured.
const DefaultOutput = "validdecode_gen.go"

// Config is the generator configuration of one package.
type Config struct {
	Output  string   `yaml:"output,omitempty"`
	Formats []string `yaml:"formats,omitempty"`
	Types   []string `yaml:"types,omitempty"`
	Prefix  string   `yaml:"prefix,omitempty"`
}

// Default returns the configuration used when neither file nor flags set a
// value.
func Default() Config {
	return Config{
		Output:  DefaultOutput,
		Formats: []string{string(gen.FormatJSON), string(gen.FormatYAML)},
		Prefix:  shape.DefaultPrefix,
	}
}

// Decode reads a configuration document. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Config
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return c, nil
}

// Load reads the configuration of dir. An explicit path must exist; without
// one, dir/validdecode.yaml is read when present. The result is layered over
// Default.
func Load(dir, path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, FileName)
	}
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return Default().Merge(c), nil
}

// Merge returns c with every value set in o taking precedence.
func (c Config) Merge(o Config) Config {
	if o.Output != "" {
		c.Output = o.Output
	}
	if len(o.Formats) > 0 {
		c.Formats = append([]string(nil), o.Formats...)
	}
	if len(o.Types) > 0 {
		c.Types = append([]string(nil), o.Types...)
	}
	if o.Prefix != "" {
		c.Prefix = o.Prefix
	}
	return c
}

// ParsedFormats validates Formats.
func (c Config) ParsedFormats() ([]gen.Format, error) {
	return gen.ParseFormats(strings.Join(c.Formats, ","))
}

// OutputPath resolves Output against dir.
func (c Config) OutputPath(dir string) string {
	if filepath.IsAbs(c.Output) {
		return c.Output
	}
	return filepath.Join(dir, c.Output)
}

// Validate reports configuration values the generator cannot use.
func (c Config) Validate() error {
	if c.Output == "" || !strings.HasSuffix(c.Output, ".go") {
		return fmt.Errorf("config: output %q must name a .go file", c.Output)
	}
	if strings.HasSuffix(c.Output, "_test.go") {
		return fmt.Errorf("config: output %q must not be a test file", c.Output)
	}
	if _, err := c.ParsedFormats(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Prefix != "" && !isIdent(c.Prefix) {
		return fmt.Errorf("config: prefix %q is not an identifier", c.Prefix)
	}
	return nil
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
