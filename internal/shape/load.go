package shape

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// MarshalYAML writes the kind by name.
func (k Kind) MarshalYAML() (any, error) { return k.String(), nil }

// UnmarshalYAML reads a kind name.
func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseKind(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*k = v
	return nil
}

// MarshalYAML writes the parameter kind by name.
func (k ParamKind) MarshalYAML() (any, error) { return k.String(), nil }

// UnmarshalYAML reads a parameter kind name.
func (k *ParamKind) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseParamKind(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*k = v
	return nil
}

// shapeFile is the document layout of a shape file.
type shapeFile struct {
	Decls []TypeDecl `yaml:"decls"`
}

// LoadDecls reads declarations from a YAML shape file and checks each one.
// Unknown keys are rejected.
func LoadDecls(r io.Reader) ([]TypeDecl, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f shapeFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("shape: decode shape file: %w", err)
	}
	for _, d := range f.Decls {
		if err := d.Check(); err != nil {
			return nil, err
		}
	}
	return f.Decls, nil
}

// MarshalDecls renders declarations in the shape file layout LoadDecls reads.
func MarshalDecls(decls []TypeDecl) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(shapeFile{Decls: decls}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalOperations renders wired operations for inspection.
func MarshalOperations(ops []DecodeOperation) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]DecodeOperation{"operations": ops}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
