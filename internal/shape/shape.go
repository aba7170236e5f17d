// Package shape describes validated types independently of how they were
// declared and derives, in order, the staging declaration, the conversion
// from staging to real value, and the wired decode operation. Every value in
// this package is immutable once built.
package shape

import (
	"fmt"
	"strings"
)

// Kind identifies one of the four supported structural kinds.
type Kind int

const (
	KindNamed      Kind = iota // record with named fields
	KindPositional             // record whose fields are identified by index
	KindUnit                   // record without fields
	KindUnion                  // tagged union of record variants
)

var kindNames = [...]string{"named", "positional", "unit", "union"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("shape: unknown kind %q", s)
}

// Field is one record field. Name is empty for positional fields of an
// original declaration.
type Field struct {
	Name     string `yaml:"name,omitempty"`
	Type     string `yaml:"type"`
	Tag      string `yaml:"tag,omitempty"` // raw struct tag, without backquotes
	Embedded bool   `yaml:"embedded,omitempty"`
	// Boxed is the staging type used for the field when Type is a union;
	// only set on staging shapes.
	Boxed string `yaml:"boxed,omitempty"`
}

// StagedType is the type the staging declaration gives the field.
func (f Field) StagedType() string {
	if f.Boxed != "" {
		return f.Boxed
	}
	return f.Type
}

// TypeShape is the structural classification of a declaration. Fields is
// used by the three record kinds, Variants by KindUnion only. Ordering is
// significant in both.
type TypeShape struct {
	Kind     Kind           `yaml:"kind"`
	Fields   []Field        `yaml:"fields,omitempty"`
	Variants []VariantShape `yaml:"variants,omitempty"`
}

// VariantShape is one arm of a union. Shape.Kind is never KindUnion.
type VariantShape struct {
	Name  string    `yaml:"name"`
	Shape TypeShape `yaml:"shape"`
	// Generic reports whether the variant type takes the union's type
	// parameters (Some[T]) rather than none (None).
	Generic bool `yaml:"generic,omitempty"`
}

// ParamKind classifies a generic parameter.
type ParamKind int

const (
	ParamType ParamKind = iota
	ParamLifetime
	ParamConst
)

var paramKindNames = [...]string{"type", "lifetime", "const"}

func (k ParamKind) String() string {
	if k < 0 || int(k) >= len(paramKindNames) {
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
	return paramKindNames[k]
}

// ParseParamKind is the inverse of ParamKind.String.
func ParseParamKind(s string) (ParamKind, error) {
	for i, n := range paramKindNames {
		if n == s {
			return ParamKind(i), nil
		}
	}
	return 0, fmt.Errorf("shape: unknown parameter kind %q", s)
}

// GenericParam is a parameter of a generic declaration. Only type
// parameters carry bounds.
type GenericParam struct {
	Kind   ParamKind `yaml:"kind"`
	Name   string    `yaml:"name"`
	Bounds []string  `yaml:"bounds,omitempty"`
}

// Predicate is one entry of a declaration's where set: Param must satisfy
// Bound.
type Predicate struct {
	Param string `yaml:"param"`
	Bound string `yaml:"bound"`
}

// TypeDecl is an extracted declaration.
type TypeDecl struct {
	Name     string         `yaml:"name"`
	Shape    TypeShape      `yaml:"shape"`
	Generics []GenericParam `yaml:"generics,omitempty"`
	Where    []Predicate    `yaml:"where,omitempty"`
	// Pos is the source position used in diagnostics, if known.
	Pos string `yaml:"pos,omitempty"`
}

// IsGeneric reports whether the declaration has parameters.
func (d TypeDecl) IsGeneric() bool { return len(d.Generics) > 0 }

// TypeArgs renders the parameter names as an instantiation suffix, e.g.
// "[K, V]". It is empty for non-generic declarations.
func TypeArgs(params []GenericParam) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Ref is the declaration instantiated with its own parameters, e.g. "Pair[T]".
func (d TypeDecl) Ref() string { return d.Name + TypeArgs(d.Generics) }

// Check verifies the structural invariants of d. Extractors produce valid
// declarations; Check guards declarations loaded from shape files.
func (d TypeDecl) Check() error {
	if d.Name == "" {
		return newError(UnsupportedShape, d, "declaration has no name")
	}
	seen := map[string]struct{}{}
	for _, p := range d.Generics {
		if p.Name == "" {
			return newError(UnsupportedShape, d, "generic parameter without a name")
		}
		if _, dup := seen[p.Name]; dup {
			return newError(UnsupportedShape, d, "generic parameter %s declared twice", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Kind != ParamType && len(p.Bounds) > 0 {
			return newError(UnsupportedShape, d, "%s parameter %s cannot carry bounds", p.Kind, p.Name)
		}
	}
	for _, w := range d.Where {
		if _, ok := seen[w.Param]; !ok {
			return newError(UnsupportedShape, d, "where predicate on %s, which is not a parameter", w.Param)
		}
	}
	if d.Shape.Kind == KindUnion {
		if len(d.Shape.Fields) > 0 {
			return newError(UnsupportedShape, d, "union declares fields")
		}
		if len(d.Shape.Variants) == 0 {
			return newError(UnsupportedShape, d, "union without variants")
		}
		names := map[string]struct{}{}
		for _, v := range d.Shape.Variants {
			if _, dup := names[v.Name]; dup {
				return newError(UnsupportedShape, d, "variant %s declared twice", v.Name)
			}
			names[v.Name] = struct{}{}
			if v.Shape.Kind == KindUnion {
				return newError(UnsupportedShape, d, "variant %s is itself a union", v.Name)
			}
			if err := checkRecord(d, v.Name, v.Shape); err != nil {
				return err
			}
		}
		return nil
	}
	if len(d.Shape.Variants) > 0 {
		return newError(UnsupportedShape, d, "%s record declares variants", d.Shape.Kind)
	}
	return checkRecord(d, d.Name, d.Shape)
}

func checkRecord(d TypeDecl, owner string, s TypeShape) error {
	switch s.Kind {
	case KindUnit:
		if len(s.Fields) > 0 {
			return newError(UnsupportedShape, d, "unit %s declares fields", owner)
		}
	case KindPositional:
		for i, f := range s.Fields {
			if f.Type == "" {
				return newError(UnsupportedShape, d, "%s field %d has no type", owner, i)
			}
		}
	case KindNamed:
		names := map[string]struct{}{}
		for _, f := range s.Fields {
			if f.Name == "" || f.Type == "" {
				return newError(UnsupportedShape, d, "%s has a field without name or type", owner)
			}
			if _, dup := names[f.Name]; dup {
				return newError(UnsupportedShape, d, "%s field %s declared twice", owner, f.Name)
			}
			names[f.Name] = struct{}{}
		}
	default:
		return newError(UnsupportedShape, d, "%s has unsupported kind %s", owner, s.Kind)
	}
	return nil
}
