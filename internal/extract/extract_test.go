package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/reoring/validdecode/internal/shape"
)

func writePkg(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

const typesSrc = `package model

import (
	"errors"

	"github.com/google/uuid"
)

//validdecode:generate
type Person struct {
	Name    string ` + "`json:\"name\"`" + `
	Age     uint8  ` + "`json:\"age\"`" + `
	A, B    int
}

func (p Person) Validate() error { return nil }

//validdecode:generate
//validdecode:positional
type Pair[T comparable] struct {
	Left, Right T
}

func (p Pair[T]) Validate() error {
	if p.Left == p.Right {
		return errors.New("equal")
	}
	return nil
}

//validdecode:generate
type Marker struct{}

func (*Marker) Validate() error { return nil }

// Account is generated too.
//
//validdecode:generate
type Account struct {
	ID uuid.UUID
}

func (Account) Validate() error { return nil }

type Untouched struct{}

const Limit = 3

var defaultName = "x"

func helper() {}
`

const unionSrc = `package model

//validdecode:generate
type Value interface {
	isValue()
	Validate() error
}

//validdecode:positional
type String struct{ V string }

//validdecode:positional
type Int struct{ V int32 }

type Point struct{ X, Y int }

type Null struct{}

func (String) isValue() {}
func (Int) isValue()    {}
func (Point) isValue()  {}
func (Null) isValue()   {}

func (s String) Validate() error { return nil }
func (i Int) Validate() error    { return nil }
func (p Point) Validate() error  { return nil }
func (n Null) Validate() error   { return nil }

//validdecode:generate
type Choice[T any] interface {
	isChoice()
	Validate() error
}

//validdecode:positional
type Some[T any] struct{ V T }

type None struct{}

func (Some[T]) isChoice() {}
func (None) isChoice()    {}

func (Some[T]) Validate() error { return nil }
func (None) Validate() error    { return nil }
`

func TestPackage(t *testing.T) {
	dir := writePkg(t, map[string]string{
		"types.go":   typesSrc,
		"union.go":   unionSrc,
		"x_test.go":  "package model\n\n//validdecode:generate\ntype Ignored struct{}\n",
		"old_gen.go": "// Code generated by validdecode. DO NOT EDIT.\n\npackage model\n\nfunc (p *Person) UnmarshalJSON([]byte) error { return nil }\n",
	})
	res, err := Package(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, "model", res.Package)

	names := make([]string, len(res.Decls))
	for i, d := range res.Decls {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"Person", "Pair", "Marker", "Account", "Value", "Choice"}, names)

	person := res.Decls[0]
	wantPerson := shape.TypeShape{Kind: shape.KindNamed, Fields: []shape.Field{
		{Name: "Name", Type: "string", Tag: `json:"name"`},
		{Name: "Age", Type: "uint8", Tag: `json:"age"`},
		{Name: "A", Type: "int"},
		{Name: "B", Type: "int"},
	}}
	if diff := cmp.Diff(wantPerson, person.Shape); diff != "" {
		t.Fatalf("Person shape mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "types.go:10:6", person.Pos)

	pair := res.Decls[1]
	assert.Equal(t, shape.KindPositional, pair.Shape.Kind)
	assert.Equal(t, []shape.Field{{Type: "T"}, {Type: "T"}}, pair.Shape.Fields)
	assert.Equal(t, []shape.GenericParam{{Kind: shape.ParamType, Name: "T", Bounds: []string{"comparable"}}}, pair.Generics)

	assert.Equal(t, shape.KindUnit, res.Decls[2].Shape.Kind)

	value := res.Decls[4]
	require.Equal(t, shape.KindUnion, value.Shape.Kind)
	wantVariants := []shape.VariantShape{
		{Name: "String", Shape: shape.TypeShape{Kind: shape.KindPositional, Fields: []shape.Field{{Type: "string"}}}},
		{Name: "Int", Shape: shape.TypeShape{Kind: shape.KindPositional, Fields: []shape.Field{{Type: "int32"}}}},
		{Name: "Point", Shape: shape.TypeShape{Kind: shape.KindNamed, Fields: []shape.Field{{Name: "X", Type: "int"}, {Name: "Y", Type: "int"}}}},
		{Name: "Null", Shape: shape.TypeShape{Kind: shape.KindUnit}},
	}
	if diff := cmp.Diff(wantVariants, value.Shape.Variants); diff != "" {
		t.Fatalf("Value variants mismatch (-want +got):\n%s", diff)
	}

	choice := res.Decls[5]
	require.Len(t, choice.Shape.Variants, 2)
	assert.True(t, choice.Shape.Variants[0].Generic)
	assert.False(t, choice.Shape.Variants[1].Generic)
	assert.Empty(t, choice.Generics[0].Bounds)

	assert.Equal(t, []Import{{Path: "github.com/google/uuid"}}, res.Imports)
	assert.Subset(t, res.Declared, []string{"Person", "Untouched", "Limit", "defaultName", "helper", "Value", "Null"})
	// names from in-package test files are reserved but never extracted
	assert.Contains(t, res.Declared, "Ignored")
}

func TestPackage_SelectByName(t *testing.T) {
	dir := writePkg(t, map[string]string{"types.go": typesSrc, "union.go": unionSrc})
	res, err := Package(dir, Options{Types: []string{"Point", "Person"}})
	require.NoError(t, err)
	require.Len(t, res.Decls, 2)
	assert.Equal(t, "Point", res.Decls[0].Name)
	assert.Equal(t, "Person", res.Decls[1].Name)

	_, err = Package(dir, Options{Types: []string{"Missing"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestPackage_SkipFiles(t *testing.T) {
	dir := writePkg(t, map[string]string{
		"types.go": typesSrc,
		"out.go":   "package model\n\nfunc (p *Person) UnmarshalJSON([]byte) error { return nil }\n",
	})
	_, err := Package(dir, Options{Types: []string{"Person"}})
	assert.ErrorIs(t, err, shape.ErrConflict)

	_, err = Package(dir, Options{Types: []string{"Person"}, SkipFiles: []string{"sub/out.go"}})
	assert.NoError(t, err)
}

func TestPackage_TestFileNames(t *testing.T) {
	dir := writePkg(t, map[string]string{
		"types.go":         typesSrc,
		"types_test.go":    "package model\n\ntype validdecodePerson struct{}\n\nvar helperValue = 1\n\ntype Hidden struct{}\n\nfunc (Hidden) Validate() error { return nil }\n",
		"external_test.go": "package model_test\n\ntype validdecodePair struct{}\n",
	})
	res, err := Package(dir, Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Declared, "validdecodePerson")
	assert.Contains(t, res.Declared, "helperValue")
	assert.NotContains(t, res.Declared, "validdecodePair", "external test packages have their own scope")
	for _, d := range res.Decls {
		assert.NotEqual(t, "Hidden", d.Name, "test files are not extracted from")
	}

	_, err = Package(writePkg(t, map[string]string{"types.go": typesSrc, "bad_test.go": "package model\n\nfunc {"}), Options{})
	require.Error(t, err)
}

func TestPackage_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
		msg  string
	}{
		{
			name: "missing_validator",
			src:  "type A struct{ X int }\n",
			want: shape.ErrMissingValidator,
		},
		{
			name: "validate_wrong_signature",
			src:  "type A struct{ X int }\nfunc (A) Validate() bool { return true }\n",
			want: shape.ErrMissingValidator,
		},
		{
			name: "conflict",
			src:  "type A struct{ X int }\nfunc (A) Validate() error { return nil }\nfunc (*A) UnmarshalYAML(any) error { return nil }\n",
			want: shape.ErrConflict,
			msg:  "UnmarshalYAML",
		},
		{
			name: "not_struct",
			src:  "type A []int\nfunc (A) Validate() error { return nil }\n",
			want: shape.ErrUnsupportedShape,
		},
		{
			name: "blank_field",
			src:  "type A struct{ _ int }\nfunc (A) Validate() error { return nil }\n",
			want: shape.ErrUnsupportedShape,
		},
		{
			name: "type_set",
			src:  "type A interface{ int | string }\n",
			want: shape.ErrUnsupportedShape,
			msg:  "type-set",
		},
		{
			name: "no_marker",
			src:  "type A interface{ Validate() error }\n",
			want: shape.ErrUnsupportedShape,
			msg:  "marker",
		},
		{
			name: "two_markers",
			src:  "type A interface{ isA(); isB(); Validate() error }\n",
			want: shape.ErrUnsupportedShape,
		},
		{
			name: "union_without_validator",
			src:  "type A interface{ isA() }\ntype B struct{}\nfunc (B) isA() {}\n",
			want: shape.ErrMissingValidator,
		},
		{
			name: "no_variants",
			src:  "type A interface{ isA(); Validate() error }\n",
			want: shape.ErrUnsupportedShape,
			msg:  "no type implements",
		},
		{
			name: "variant_not_struct",
			src:  "type A interface{ isA(); Validate() error }\ntype B int\nfunc (B) isA() {}\n",
			want: shape.ErrUnsupportedShape,
			msg:  "not a struct",
		},
		{
			name: "variant_pointer_receiver",
			src:  "type A interface{ isA(); Validate() error }\ntype B struct{}\nfunc (*B) isA() {}\n",
			want: shape.ErrUnsupportedShape,
			msg:  "pointer receiver",
		},
		{
			name: "variant_params_mismatch",
			src:  "type A[T any] interface{ isA(); Validate() error }\ntype B[U any] struct{ V U }\nfunc (B[U]) isA() {}\n",
			want: shape.ErrUnsupportedShape,
			msg:  "type parameters",
		},
		{
			name: "variants_directive_unknown",
			src:  "//validdecode:variants B,C\ntype A interface{ isA(); Validate() error }\ntype B struct{}\nfunc (B) isA() {}\n",
			want: shape.ErrUnsupportedShape,
			msg:  "variant C not found",
		},
		{
			name: "unknown_directive",
			src:  "//validdecode:tuple\ntype A struct{}\n",
			want: shape.ErrUnsupportedShape,
			msg:  "unknown directive",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := "package p\n\n"
			if tc.name == "unknown_directive" || tc.name == "variants_directive_unknown" {
				src += tc.src
			} else {
				src += "//validdecode:generate\n" + tc.src
			}
			dir := writePkg(t, map[string]string{"a.go": src})
			opts := Options{}
			if tc.name == "variants_directive_unknown" {
				opts.Types = []string{"A"}
			}
			_, err := Package(dir, opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestPackage_AggregatesErrors(t *testing.T) {
	src := `package p

//validdecode:generate
type A struct{ X int }

//validdecode:generate
type B struct{ X int }

func (B) Validate() error { return nil }

//validdecode:generate
type C []int
`
	dir := writePkg(t, map[string]string{"a.go": src})
	res, err := Package(dir, Options{})
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], shape.ErrMissingValidator)
	assert.ErrorIs(t, errs[1], shape.ErrUnsupportedShape)
	require.Len(t, res.Decls, 1)
	assert.Equal(t, "B", res.Decls[0].Name)
}

func TestPackage_VariantsDirectiveOrder(t *testing.T) {
	src := `package p

//validdecode:generate
//validdecode:variants C, B
type A interface {
	isA()
	Validate() error
}

type B struct{}
type C struct{ N int }

func (B) isA() {}
func (C) isA() {}
func (B) Validate() error { return nil }
func (C) Validate() error { return nil }
`
	dir := writePkg(t, map[string]string{"a.go": src})
	res, err := Package(dir, Options{})
	require.NoError(t, err)
	require.Len(t, res.Decls, 1)
	got := res.Decls[0].Shape.Variants
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
}

func TestPackage_EmbeddedAndImports(t *testing.T) {
	src := `package p

import (
	"time"

	yamlv3 "gopkg.in/yaml.v3"
)

type Base struct{ ID int }

func (Base) Validate() error { return nil }

//validdecode:generate
type Event struct {
	Base
	*Meta ` + "`json:\"meta\"`" + `
	At   time.Time
	Node yamlv3.Node
	Tags map[string][]time.Duration
}

type Meta struct{}
`
	dir := writePkg(t, map[string]string{"a.go": src})
	res, err := Package(dir, Options{})
	require.NoError(t, err)
	require.Len(t, res.Decls, 1)
	fields := res.Decls[0].Shape.Fields
	assert.Equal(t, shape.Field{Name: "Base", Type: "Base", Embedded: true}, fields[0])
	assert.Equal(t, shape.Field{Name: "Meta", Type: "*Meta", Tag: `json:"meta"`, Embedded: true}, fields[1])
	assert.Equal(t, "map[string][]time.Duration", fields[4].Type)
	want := []Import{{Path: "time"}, {Name: "yamlv3", Path: "gopkg.in/yaml.v3"}}
	if diff := cmp.Diff(want, res.Imports, cmpopts.SortSlices(func(a, b Import) bool { return a.Path < b.Path })); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
}

func TestGuessPackageName(t *testing.T) {
	cases := map[string]string{
		"time":                      "time",
		"gopkg.in/yaml.v3":          "yaml",
		"github.com/goccy/go-json":  "json",
		"github.com/google/uuid":    "uuid",
		"example.com/mod/v2":        "mod",
		"github.com/tidwall/gjson":  "gjson",
		"github.com/foo/bar-go":     "bar",
		"github.com/foo/multi-word": "multi_word",
	}
	for in, want := range cases {
		assert.Equal(t, want, guessPackageName(in), in)
	}
}

func TestPackage_Empty(t *testing.T) {
	dir := writePkg(t, map[string]string{"a.go": "package p\n"})
	res, err := Package(dir, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Decls)

	_, err = Package(t.TempDir(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Go files")
}
