package extract

import (
	"go/ast"
	"go/types"

	"github.com/reoring/validdecode/internal/shape"
)

// union classifies a sealed interface. Its variants are resolved against the
// package index.
func (idx *pkgIndex) union(ti *typeInfo, it *ast.InterfaceType, generics []shape.GenericParam, dirs map[string]string) (shape.TypeShape, error) {
	name := ti.spec.Name.Name
	pos := idx.pos(ti.spec)
	fail := func(kind shape.ErrorKind, format string, args ...any) (shape.TypeShape, error) {
		return shape.TypeShape{}, shape.Errorf(kind, name, pos, format, args...)
	}

	var marker string
	validate, embeds := false, false
	for _, m := range it.Methods.List {
		if len(m.Names) == 0 {
			if isTypeSet(m.Type) {
				return fail(shape.UnsupportedShape, "type-set interface %s has no named variants", exprString(m.Type))
			}
			embeds = true
			continue
		}
		ft, ok := m.Type.(*ast.FuncType)
		if !ok {
			continue
		}
		mname := m.Names[0].Name
		switch {
		case mname == "Validate" && isValidateSig(ft):
			validate = true
		case !ast.IsExported(mname) && niladic(ft):
			if marker != "" {
				return fail(shape.UnsupportedShape, "marker methods %s and %s; a union seals with exactly one", marker, mname)
			}
			marker = mname
		}
	}
	if marker == "" {
		return fail(shape.UnsupportedShape, "interface has no unexported marker method")
	}
	if !validate && !embeds {
		return fail(shape.MissingValidator, "%s declares no Validate() error method", name)
	}

	var variants []*typeInfo
	if list, ok := dirs[dirVariants]; ok {
		for _, vn := range splitCSV(list) {
			vt, ok := idx.types[vn]
			if !ok {
				return fail(shape.UnsupportedShape, "variant %s not found", vn)
			}
			if _, ok := idx.hasMethod(vn, marker); !ok {
				return fail(shape.UnsupportedShape, "variant %s does not implement %s", vn, marker)
			}
			variants = append(variants, vt)
		}
	} else {
		for _, vt := range idx.ordered {
			if _, ok := idx.hasMethod(vt.spec.Name.Name, marker); ok {
				variants = append(variants, vt)
			}
		}
	}
	if len(variants) == 0 {
		return fail(shape.UnsupportedShape, "no type implements %s", marker)
	}

	out := shape.TypeShape{Kind: shape.KindUnion}
	for _, vt := range variants {
		vn := vt.spec.Name.Name
		if m, _ := idx.hasMethod(vn, marker); m.pointer {
			return fail(shape.UnsupportedShape, "variant %s implements %s on a pointer receiver", vn, marker)
		}
		st, ok := vt.spec.Type.(*ast.StructType)
		if !ok {
			if _, iface := vt.spec.Type.(*ast.InterfaceType); iface {
				return fail(shape.UnsupportedShape, "variant %s is an interface; unions do not nest", vn)
			}
			return fail(shape.UnsupportedShape, "variant %s is not a struct", vn)
		}
		generic, err := variantParams(vt.spec.TypeParams, generics)
		if err != nil {
			return fail(shape.UnsupportedShape, "variant %s: %v", vn, err)
		}
		vdirs, err := directives(vt.doc)
		if err != nil {
			return fail(shape.UnsupportedShape, "variant %s: %v", vn, err)
		}
		_, positional := vdirs[dirPositional]
		rec, err := record(st, positional)
		if err != nil {
			return fail(shape.UnsupportedShape, "variant %s: %v", vn, err)
		}
		out.Variants = append(out.Variants, shape.VariantShape{Name: vn, Shape: rec, Generic: generic})
	}
	return out, nil
}

func niladic(ft *ast.FuncType) bool {
	return (ft.Params == nil || len(ft.Params.List) == 0) && (ft.Results == nil || len(ft.Results.List) == 0)
}

// isTypeSet reports whether an embedded interface element is a type term
// such as ~int, int | string, or a predeclared non-interface type.
func isTypeSet(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.BinaryExpr, *ast.UnaryExpr:
		return true
	case *ast.Ident:
		obj := types.Universe.Lookup(e.Name)
		if obj == nil {
			return false
		}
		_, isType := obj.(*types.TypeName)
		return isType && !types.IsInterface(obj.Type())
	}
	return false
}

// variantParams reports whether a variant takes the union's type parameters.
// A variant takes either none of them or all of them, in the same order.
func variantParams(list *ast.FieldList, union []shape.GenericParam) (bool, error) {
	if list == nil || len(list.List) == 0 {
		return false, nil
	}
	var names []string
	for _, f := range list.List {
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
	}
	if len(names) != len(union) {
		return false, extractError("type parameters must match the union's")
	}
	for i, n := range names {
		if union[i].Name != n {
			return false, extractError("type parameters must match the union's")
		}
	}
	return true, nil
}
