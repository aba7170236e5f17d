package shape

import (
	"go/ast"
	"go/parser"
	"strconv"
	"strings"
)

// DecodableBound is the bound every type parameter gains in staging
// declarations and decode operations.
const DecodableBound = "validdecode.Decodable"

// StagingDecl is the declaration the decode capability fills before any
// validation runs. It mirrors the original topology exactly.
type StagingDecl struct {
	Name     string         `yaml:"name"`
	Original string         `yaml:"original"`
	Shape    TypeShape      `yaml:"shape"`
	Generics []GenericParam `yaml:"generics,omitempty"`
	Where    []Predicate    `yaml:"where,omitempty"`
	// BoxName is the decode target of a union: it holds the converted,
	// validated real value.
	BoxName string `yaml:"box,omitempty"`
	// Variants are the staging variant type names, parallel to
	// Shape.Variants.
	Variants []string `yaml:"variants,omitempty"`
}

// Ref is the staging type instantiated with its own parameters.
func (s StagingDecl) Ref() string { return s.Name + TypeArgs(s.Generics) }

// SynthesizeStaging derives the staging declaration of decl. Names are drawn
// from scope, which must already know the whole generation set.
func SynthesizeStaging(decl TypeDecl, scope *Scope) (StagingDecl, error) {
	if err := decl.Check(); err != nil {
		return StagingDecl{}, err
	}
	st := StagingDecl{
		Name:     scope.StagingName(decl.Name),
		Original: decl.Name,
		Generics: withBound(decl.Generics, DecodableBound),
		Where:    append([]Predicate(nil), decl.Where...),
	}
	if decl.Shape.Kind != KindUnion {
		s, err := stageRecord(decl, decl.Name, decl.Shape, scope)
		if err != nil {
			return StagingDecl{}, err
		}
		st.Shape = s
		return st, nil
	}

	st.BoxName = scope.BoxName(decl.Name)
	st.Shape.Kind = KindUnion
	for _, v := range decl.Shape.Variants {
		payload, err := stageRecord(decl, v.Name, v.Shape, scope)
		if err != nil {
			return StagingDecl{}, err
		}
		st.Shape.Variants = append(st.Shape.Variants, VariantShape{Name: v.Name, Shape: payload, Generic: v.Generic})
		st.Variants = append(st.Variants, scope.VariantName(decl.Name, v.Name))
	}
	return st, nil
}

func stageRecord(decl TypeDecl, owner string, s TypeShape, scope *Scope) (TypeShape, error) {
	out := TypeShape{Kind: s.Kind}
	for i, f := range s.Fields {
		sf := f
		if s.Kind == KindPositional {
			sf = Field{Name: PositionalName(i), Type: f.Type}
		}
		boxed, err := boxFor(decl, owner, f, scope)
		if err != nil {
			return TypeShape{}, err
		}
		sf.Boxed = boxed
		out.Fields = append(out.Fields, sf)
	}
	return out, nil
}

// PositionalName names field i of a positional staging record.
func PositionalName(i int) string { return "F" + strconv.Itoa(i) }

// boxFor returns the box type a union-typed field is staged through, or ""
// for any other field. Unions are only supported as the whole field type.
func boxFor(decl TypeDecl, owner string, f Field, scope *Scope) (string, error) {
	expr, err := parser.ParseExpr(f.Type)
	if err != nil {
		return "", newError(UnsupportedShape, decl, "%s: cannot parse field type %q", owner, f.Type)
	}
	base, args := instance(expr)
	if f.Embedded {
		if star, ok := expr.(*ast.StarExpr); ok {
			base, _ = instance(star.X)
		}
		if base != "" && scope.IsGenerated(base) {
			return "", newError(UnsupportedShape, decl, "%s embeds %s, which would promote its decode hooks", owner, base)
		}
	}
	if base != "" && scope.IsUnion(base) {
		for _, a := range args {
			if u := unionMention(a, scope); u != "" {
				return "", newError(UnsupportedShape, decl, "%s: union %s used as a type argument of %s", owner, u, base)
			}
		}
		return scope.BoxName(base) + typeArgsOf(f.Type, args), nil
	}
	if u := unionMention(expr, scope); u != "" {
		return "", newError(UnsupportedShape, decl, "%s: union %s may only appear as the whole type of a field, got %q", owner, u, f.Type)
	}
	return "", nil
}

// instance splits Name[Args] into the local type name and its type
// arguments. Qualified and composite types yield an empty name.
func instance(expr ast.Expr) (string, []ast.Expr) {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, nil
	case *ast.IndexExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			return id.Name, []ast.Expr{e.Index}
		}
	case *ast.IndexListExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			return id.Name, e.Indices
		}
	}
	return "", nil
}

// typeArgsOf returns the "[...]" suffix of src when args is non-empty.
func typeArgsOf(src string, args []ast.Expr) string {
	if len(args) == 0 {
		return ""
	}
	return src[strings.IndexByte(src, '['):]
}

func unionMention(expr ast.Expr, scope *Scope) string {
	found := ""
	ast.Inspect(expr, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && scope.IsUnion(id.Name) {
			found = id.Name
		}
		return found == ""
	})
	return found
}

// withBound appends bound to every type parameter that lacks it.
func withBound(params []GenericParam, bound string) []GenericParam {
	out := make([]GenericParam, len(params))
	for i, p := range params {
		out[i] = GenericParam{Kind: p.Kind, Name: p.Name, Bounds: append([]string(nil), p.Bounds...)}
		if p.Kind == ParamType {
			out[i].Bounds = appendUnique(out[i].Bounds, bound)
		}
	}
	return out
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, have := range list {
			if have == it {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, it)
		}
	}
	return list
}
