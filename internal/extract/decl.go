package extract

import (
	"go/ast"
	"strconv"

	"go.uber.org/multierr"

	"github.com/reoring/validdecode/internal/shape"
)

// hooks a selected type must not already declare.
var reservedMethods = []string{"UnmarshalJSON", "UnmarshalYAML", "decodeValidated"}

// decl classifies one selected type declaration.
func (idx *pkgIndex) decl(ti *typeInfo) (shape.TypeDecl, error) {
	ts := ti.spec
	name := ts.Name.Name
	pos := idx.pos(ts)
	fail := func(kind shape.ErrorKind, format string, args ...any) error {
		return shape.Errorf(kind, name, pos, format, args...)
	}
	if ts.Assign.IsValid() {
		return shape.TypeDecl{}, fail(shape.UnsupportedShape, "type aliases cannot be generated")
	}
	dirs, err := directives(ti.doc)
	if err != nil {
		return shape.TypeDecl{}, fail(shape.UnsupportedShape, "%v", err)
	}
	generics := typeParams(ts.TypeParams)
	d := shape.TypeDecl{Name: name, Generics: generics, Pos: pos}

	switch t := ts.Type.(type) {
	case *ast.StructType:
		if _, ok := dirs[dirVariants]; ok {
			return shape.TypeDecl{}, fail(shape.UnsupportedShape, "%s%s only applies to interfaces", directivePrefix, dirVariants)
		}
		_, positional := dirs[dirPositional]
		rec, err := record(t, positional)
		if err != nil {
			return shape.TypeDecl{}, fail(shape.UnsupportedShape, "%v", err)
		}
		d.Shape = rec
		var errs error
		if !idx.hasValidator(name) && !hasEmbedded(rec) {
			errs = multierr.Append(errs, fail(shape.MissingValidator, "%s declares no Validate() error method", name))
		}
		for _, m := range reservedMethods {
			if _, ok := idx.hasMethod(name, m); ok {
				errs = multierr.Append(errs, fail(shape.Conflict, "%s already declares %s", name, m))
			}
		}
		if errs != nil {
			return shape.TypeDecl{}, errs
		}
	case *ast.InterfaceType:
		if _, ok := dirs[dirPositional]; ok {
			return shape.TypeDecl{}, fail(shape.UnsupportedShape, "%s%s only applies to structs", directivePrefix, dirPositional)
		}
		u, err := idx.union(ti, t, generics, dirs)
		if err != nil {
			return shape.TypeDecl{}, err
		}
		d.Shape = u
	default:
		return shape.TypeDecl{}, fail(shape.UnsupportedShape, "%s is neither a struct nor an interface", exprString(ts.Type))
	}
	if err := d.Check(); err != nil {
		return shape.TypeDecl{}, err
	}
	return d, nil
}

// record classifies a struct type. A struct without fields is a unit unless
// it is explicitly positional.
func record(st *ast.StructType, positional bool) (shape.TypeShape, error) {
	out := shape.TypeShape{Kind: shape.KindNamed}
	switch {
	case positional:
		out.Kind = shape.KindPositional
	case st.Fields == nil || len(st.Fields.List) == 0:
		out.Kind = shape.KindUnit
		return out, nil
	}
	if st.Fields == nil {
		return out, nil
	}
	for _, f := range st.Fields.List {
		typ := exprString(f.Type)
		tag := ""
		if f.Tag != nil {
			t, err := strconv.Unquote(f.Tag.Value)
			if err != nil {
				return shape.TypeShape{}, err
			}
			tag = t
		}
		if len(f.Names) == 0 {
			out.Fields = append(out.Fields, shape.Field{Name: embeddedField(f.Type), Type: typ, Tag: tag, Embedded: true})
			continue
		}
		for _, n := range f.Names {
			if n.Name == "_" {
				return shape.TypeShape{}, errBlankField
			}
			out.Fields = append(out.Fields, shape.Field{Name: n.Name, Type: typ, Tag: tag})
		}
	}
	if out.Kind == shape.KindPositional {
		for i := range out.Fields {
			out.Fields[i].Name = ""
			out.Fields[i].Embedded = false
		}
	}
	return out, nil
}

type extractError string

func (e extractError) Error() string { return string(e) }

const errBlankField = extractError("blank fields cannot be copied")

func embeddedField(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.SelectorExpr:
			return e.Sel.Name
		case *ast.Ident:
			return e.Name
		default:
			return exprString(expr)
		}
	}
}

func hasEmbedded(s shape.TypeShape) bool {
	for _, f := range s.Fields {
		if f.Embedded {
			return true
		}
	}
	return false
}

// hasValidator reports whether name declares Validate() error.
func (idx *pkgIndex) hasValidator(name string) bool {
	m, ok := idx.hasMethod(name, "Validate")
	return ok && isValidateSig(m.fn.Type)
}

func isValidateSig(ft *ast.FuncType) bool {
	if ft.Params != nil && len(ft.Params.List) > 0 {
		return false
	}
	if ft.Results == nil || len(ft.Results.List) != 1 || len(ft.Results.List[0].Names) > 1 {
		return false
	}
	id, ok := ft.Results.List[0].Type.(*ast.Ident)
	return ok && id.Name == "error"
}

// typeParams extracts the type parameters of a declaration. A constraint
// interface{ A; B } yields one bound per element, any yields none, and any
// other constraint is kept whole.
func typeParams(list *ast.FieldList) []shape.GenericParam {
	if list == nil {
		return nil
	}
	var out []shape.GenericParam
	for _, f := range list.List {
		bounds := constraintBounds(f.Type)
		for _, n := range f.Names {
			out = append(out, shape.GenericParam{
				Kind:   shape.ParamType,
				Name:   n.Name,
				Bounds: append([]string(nil), bounds...),
			})
		}
	}
	return out
}

func constraintBounds(expr ast.Expr) []string {
	switch c := expr.(type) {
	case *ast.Ident:
		if c.Name == "any" {
			return nil
		}
	case *ast.InterfaceType:
		if c.Methods == nil || len(c.Methods.List) == 0 {
			return nil
		}
		var out []string
		for _, m := range c.Methods.List {
			if len(m.Names) > 0 {
				return []string{exprString(expr)}
			}
			out = append(out, exprString(m.Type))
		}
		return out
	}
	return []string{exprString(expr)}
}
