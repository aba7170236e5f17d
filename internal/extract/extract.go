// Package extract reads Go source and classifies annotated type declarations
// into shape descriptions.
//
// A declaration is selected by a doc comment directive:
//
//	//validdecode:generate
//	type Person struct {
//		Name string `json:"name"`
//	}
//
// Structs are named records, or positional records when they also carry
// //validdecode:positional. An empty struct is a unit. An interface with a
// single unexported marker method is a union whose variants are the package
// types implementing the marker, or the list given by
// //validdecode:variants A,B,C.
package extract

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/reoring/validdecode/internal/log"
	"github.com/reoring/validdecode/internal/shape"
)

const (
	directivePrefix = "//validdecode:"
	dirGenerate     = "generate"
	dirPositional   = "positional"
	dirVariants     = "variants"

	generatedMarker = "Code generated by validdecode"
)

// Options narrows what Package reads and selects.
type Options struct {
	// Types selects declarations by name instead of by directive.
	Types []string
	// SkipFiles are base names that are never read, typically the output
	// file of a previous run.
	SkipFiles []string
}

// Import is a package referenced by the field types of a selected
// declaration. Name is set when the source imports it under an explicit name.
type Import struct {
	Name string
	Path string
}

// Result is what Package found in one directory.
type Result struct {
	Package string
	Decls   []shape.TypeDecl
	// Declared lists every package-level identifier of the package, for
	// collision-free naming of generated declarations.
	Declared []string
	Imports  []Import
}

// typeInfo is one package-level type declaration.
type typeInfo struct {
	spec *ast.TypeSpec
	doc  []*ast.Comment
	file *ast.File
}

type method struct {
	name    string
	fn      *ast.FuncDecl
	pointer bool
}

type pkgIndex struct {
	fset     *token.FileSet
	name     string
	types    map[string]*typeInfo
	ordered  []*typeInfo
	methods  map[string][]method
	declared []string
}

// Package parses the non-test Go files of dir and extracts the selected
// declarations. Files generated by validdecode are skipped. In-package test
// files only contribute their identifiers to Result.Declared, since the
// generated file is compiled with them in test builds. Errors of
// individual declarations are aggregated; the declarations that could be
// extracted are returned alongside.
func Package(dir string, opts Options) (*Result, error) {
	idx, err := load(dir, opts.SkipFiles)
	if err != nil {
		return nil, err
	}
	res := &Result{Package: idx.name, Declared: idx.declared}

	var selected []*typeInfo
	if len(opts.Types) > 0 {
		for _, name := range opts.Types {
			ti, ok := idx.types[name]
			if !ok {
				err = multierr.Append(err, fmt.Errorf("extract: type %s not found in %s", name, dir))
				continue
			}
			selected = append(selected, ti)
		}
	} else {
		for _, ti := range idx.ordered {
			dirs, derr := directives(ti.doc)
			if derr != nil {
				err = multierr.Append(err, shape.Errorf(shape.UnsupportedShape, ti.spec.Name.Name, idx.pos(ti.spec), "%v", derr))
				continue
			}
			if _, ok := dirs[dirGenerate]; ok {
				selected = append(selected, ti)
			}
		}
	}

	imports := newImportSet()
	for _, ti := range selected {
		decl, derr := idx.decl(ti)
		if derr != nil {
			err = multierr.Append(err, derr)
			continue
		}
		if ierr := imports.collect(idx, ti, decl); ierr != nil {
			err = multierr.Append(err, ierr)
			continue
		}
		log.Logger().Debug("extracted declaration",
			zap.String("decl", decl.Name),
			zap.Stringer("kind", decl.Shape.Kind),
			zap.Int("generics", len(decl.Generics)),
		)
		res.Decls = append(res.Decls, decl)
	}
	res.Imports = imports.list()
	return res, err
}

func load(dir string, skip []string) (*pkgIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	skipped := map[string]struct{}{}
	for _, s := range skip {
		skipped[filepath.Base(s)] = struct{}{}
	}
	idx := &pkgIndex{
		fset:    token.NewFileSet(),
		types:   map[string]*typeInfo{},
		methods: map[string][]method{},
	}
	var names, tests []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") {
			continue
		}
		if _, ok := skipped[n]; ok {
			continue
		}
		if strings.HasSuffix(n, "_test.go") {
			tests = append(tests, n)
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)
	sort.Strings(tests)

	seen := map[string]struct{}{}
	for _, n := range names {
		f, err := parser.ParseFile(idx.fset, filepath.Join(dir, n), nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		if isOwnOutput(f) {
			continue
		}
		if idx.name == "" {
			idx.name = f.Name.Name
		} else if f.Name.Name != idx.name {
			return nil, fmt.Errorf("extract: %s: package %s, expected %s", n, f.Name.Name, idx.name)
		}
		idx.index(f, seen)
	}
	if idx.name == "" {
		return nil, fmt.Errorf("extract: no Go files in %s", dir)
	}
	for _, n := range tests {
		f, err := parser.ParseFile(idx.fset, filepath.Join(dir, n), nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		// external test packages (package x_test) have their own scope
		if f.Name.Name == idx.name {
			idx.declareAll(f, seen)
		}
	}
	return idx, nil
}

func isOwnOutput(f *ast.File) bool {
	if !ast.IsGenerated(f) {
		return false
	}
	for _, cg := range f.Comments {
		if cg.Pos() > f.Package {
			break
		}
		if strings.Contains(cg.Text(), generatedMarker) {
			return true
		}
	}
	return false
}

func (idx *pkgIndex) declare(seen map[string]struct{}, name string) {
	if name == "_" {
		return
	}
	if _, ok := seen[name]; !ok {
		seen[name] = struct{}{}
		idx.declared = append(idx.declared, name)
	}
}

// declareAll records the package-level identifiers of f without indexing
// its types or methods.
func (idx *pkgIndex) declareAll(f *ast.File, seen map[string]struct{}) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				idx.declare(seen, d.Name.Name)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					idx.declare(seen, s.Name.Name)
				case *ast.ValueSpec:
					for _, n := range s.Names {
						idx.declare(seen, n.Name)
					}
				}
			}
		}
	}
}

func (idx *pkgIndex) index(f *ast.File, seen map[string]struct{}) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 {
				idx.declare(seen, d.Name.Name)
				continue
			}
			recv, ptr := receiverName(d.Recv.List[0].Type)
			if recv != "" {
				idx.methods[recv] = append(idx.methods[recv], method{name: d.Name.Name, fn: d, pointer: ptr})
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					idx.declare(seen, s.Name.Name)
					var doc []*ast.Comment
					if s.Doc != nil {
						doc = append(doc, s.Doc.List...)
					}
					if d.Doc != nil && !d.Lparen.IsValid() {
						doc = append(doc, d.Doc.List...)
					}
					ti := &typeInfo{spec: s, doc: doc, file: f}
					idx.types[s.Name.Name] = ti
					idx.ordered = append(idx.ordered, ti)
				case *ast.ValueSpec:
					for _, n := range s.Names {
						idx.declare(seen, n.Name)
					}
				}
			}
		}
	}
}

// receiverName returns the base type name of a method receiver and whether
// the receiver is a pointer.
func receiverName(expr ast.Expr) (string, bool) {
	ptr := false
	if star, ok := expr.(*ast.StarExpr); ok {
		ptr = true
		expr = star.X
	}
	switch e := expr.(type) {
	case *ast.IndexExpr:
		expr = e.X
	case *ast.IndexListExpr:
		expr = e.X
	}
	if id, ok := expr.(*ast.Ident); ok {
		return id.Name, ptr
	}
	return "", ptr
}

func (idx *pkgIndex) pos(n ast.Node) string {
	p := idx.fset.Position(n.Pos())
	return filepath.Base(p.Filename) + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

func (idx *pkgIndex) hasMethod(typeName, name string) (method, bool) {
	for _, m := range idx.methods[typeName] {
		if m.name == name {
			return m, true
		}
	}
	return method{}, false
}

// directives parses the validdecode directives of a doc comment.
func directives(doc []*ast.Comment) (map[string]string, error) {
	out := map[string]string{}
	for _, c := range doc {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(c.Text, directivePrefix))
		name, arg, _ := strings.Cut(body, " ")
		switch name {
		case dirGenerate, dirPositional, dirVariants:
			out[name] = strings.TrimSpace(arg)
		default:
			return nil, fmt.Errorf("unknown directive %s%s", directivePrefix, name)
		}
	}
	return out, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func exprString(expr ast.Expr) string { return types.ExprString(expr) }

// importSet collects the imports field types refer to, deduplicated by path.
type importSet struct {
	byPath map[string]Import
	order  []string
}

func newImportSet() *importSet { return &importSet{byPath: map[string]Import{}} }

func (s *importSet) list() []Import {
	out := make([]Import, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, s.byPath[p])
	}
	return out
}

// collect resolves every package qualifier used by the field types and
// bounds of decl against the imports of the file declaring it.
func (s *importSet) collect(idx *pkgIndex, ti *typeInfo, decl shape.TypeDecl) error {
	var exprs []string
	fields := func(ts shape.TypeShape) {
		for _, f := range ts.Fields {
			exprs = append(exprs, f.Type)
		}
	}
	fields(decl.Shape)
	for _, v := range decl.Shape.Variants {
		fields(v.Shape)
	}
	for _, p := range decl.Generics {
		exprs = append(exprs, p.Bounds...)
	}
	var err error
	for _, src := range exprs {
		for _, q := range qualifiers(src) {
			imp, ok := resolveImport(ti.file, q)
			if !ok {
				// variants may live in another file
				imp, ok = idx.resolveAnywhere(q)
			}
			if !ok {
				err = multierr.Append(err, shape.Errorf(shape.UnsupportedShape, decl.Name, idx.pos(ti.spec), "cannot resolve package %s in %s", q, src))
				continue
			}
			if _, dup := s.byPath[imp.Path]; !dup {
				s.byPath[imp.Path] = imp
				s.order = append(s.order, imp.Path)
			}
		}
	}
	return err
}

func (idx *pkgIndex) resolveAnywhere(name string) (Import, bool) {
	for _, ti := range idx.ordered {
		if imp, ok := resolveImport(ti.file, name); ok {
			return imp, true
		}
	}
	return Import{}, false
}

// qualifiers returns the package names used in a type expression.
func qualifiers(src string) []string {
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil
	}
	var out []string
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok {
			out = append(out, id.Name)
		}
		return false
	})
	return out
}

func resolveImport(f *ast.File, name string) (Import, bool) {
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if spec.Name != nil {
			if spec.Name.Name == name {
				return Import{Name: name, Path: path}, true
			}
			continue
		}
		if guessPackageName(path) == name {
			return Import{Path: path}, true
		}
	}
	return Import{}, false
}

// guessPackageName derives the conventional package name from an import
// path: "gopkg.in/yaml.v3" is yaml, "github.com/goccy/go-json" is json,
// "example.com/mod/v2" is mod.
func guessPackageName(path string) string {
	elems := strings.Split(path, "/")
	last := elems[len(elems)-1]
	if len(elems) > 1 && len(last) > 1 && last[0] == 'v' && isDigits(last[1:]) {
		last = elems[len(elems)-2]
	}
	if i := strings.Index(last, ".v"); i > 0 && isDigits(last[i+2:]) {
		last = last[:i]
	}
	last = strings.TrimPrefix(last, "go-")
	last = strings.TrimSuffix(last, "-go")
	var b bytes.Buffer
	for _, r := range last {
		if r == '-' || r == '.' {
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
