// Package gen renders wired decode operations as Go source.
package gen

import (
	"bufio"
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/validdecode/internal/shape"
)

// RuntimeImport is the import path of the runtime package generated code
// calls.
const RuntimeImport = "github.com/reoring/validdecode"

const yamlImport = "gopkg.in/yaml.v3"

const fingerprintPrefix = "validdecode:union "

// Format is a serialization format generated code installs hooks for.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultFormats is used when no format is configured.
var DefaultFormats = []Format{FormatJSON, FormatYAML}

// ParseFormats reads a comma-separated format list. An empty list selects
// DefaultFormats.
func ParseFormats(csv string) ([]Format, error) {
	var out []Format
	seen := map[Format]struct{}{}
	for _, p := range strings.Split(csv, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(p)))
		if f == "" {
			continue
		}
		if f != FormatJSON && f != FormatYAML {
			return nil, fmt.Errorf("gen: unknown format %q", string(f))
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(out) == 0 {
		return append([]Format(nil), DefaultFormats...), nil
	}
	return out, nil
}

// Import is an import the generated file needs for the field types it
// copies. Name is empty unless the source imported the path under an
// explicit name.
type Import struct {
	Name string
	Path string
}

// File is one generated Go file.
type File struct {
	Package string
	Formats []Format
	Imports []Import
	Ops     []shape.DecodeOperation
}

type hooks struct {
	Positional bool
	Unit       bool
	JSON       bool
	YAML       bool
	Targets    string // ", &s.F0, &s.F1"
}

type recordView struct {
	Name, Ref           string
	Staging, StagingRef string
	StagingParams       string
	FuncParams          string
	Func                string
	Fields              []string
	Convert             string
	Hooks               hooks
	JSON, YAML          bool
}

type variantView struct {
	Name, Real          string
	Staging, StagingRef string
	Fields              []string
	Bindings            []string
	Convert             string
	Hooks               hooks
}

type unionView struct {
	Name, Ref           string
	Staging, StagingRef string
	Box, BoxRef         string
	StagingParams       string
	FuncParams          string
	Func                string
	Variants            []variantView
	VariantList         string // `"A", "B"`
	Assertions          bool
	JSON, YAML          bool
}

type declView struct {
	Record *recordView
	Union  *unionView
}

type fileView struct {
	Package      string
	Fingerprints []string
	Imports      []Import
	Decls        []declView
}

// RenderFile renders f and formats the result with go/format.
func RenderFile(f File) ([]byte, error) {
	if f.Package == "" {
		return nil, fmt.Errorf("gen: package name is required")
	}
	formats := f.Formats
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	var jsonOn, yamlOn bool
	for _, fm := range formats {
		switch fm {
		case FormatJSON:
			jsonOn = true
		case FormatYAML:
			yamlOn = true
		default:
			return nil, fmt.Errorf("gen: unknown format %q", string(fm))
		}
	}

	view := fileView{Package: f.Package}
	for _, op := range f.Ops {
		if err := checkParams(op); err != nil {
			return nil, err
		}
		if op.Decl.Shape.Kind == shape.KindUnion {
			u := unionOf(op, jsonOn, yamlOn)
			view.Decls = append(view.Decls, declView{Union: u})
			view.Fingerprints = append(view.Fingerprints, Fingerprint(op.Decl))
			continue
		}
		view.Decls = append(view.Decls, declView{Record: recordOf(op, jsonOn, yamlOn)})
	}
	if len(f.Ops) > 0 {
		view.Imports = imports(f.Imports, yamlOn)
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("gen: execute template: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: format generated source: %w\n%s", err, buf.Bytes())
	}
	return out, nil
}

// Go has no lifetime or constant parameters; declarations loaded from shape
// files may carry them but cannot be rendered.
func checkParams(op shape.DecodeOperation) error {
	for _, p := range op.Bounds {
		if p.Kind != shape.ParamType {
			return shape.Errorf(shape.UnsupportedShape, op.Decl.Name, op.Decl.Pos, "%s parameter %s has no Go rendering", p.Kind, p.Name)
		}
	}
	return nil
}

func imports(extra []Import, yamlOn bool) []Import {
	out := []Import{{Path: RuntimeImport}}
	if yamlOn {
		out = append(out, Import{Path: yamlImport})
	}
	seen := map[Import]struct{}{}
	for _, imp := range out {
		seen[imp] = struct{}{}
	}
	for _, imp := range extra {
		if _, dup := seen[imp]; dup {
			continue
		}
		seen[imp] = struct{}{}
		out = append(out, imp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func recordOf(op shape.DecodeOperation, jsonOn, yamlOn bool) *recordView {
	st := op.Staging
	return &recordView{
		Name:          op.Decl.Name,
		Ref:           op.Decl.Ref(),
		Staging:       st.Name,
		StagingRef:    st.Ref(),
		StagingParams: paramList(st.Generics),
		FuncParams:    paramList(op.Bounds),
		Func:          op.Func,
		Fields:        fieldLines(st.Shape),
		Convert:       construct(op.Decl.Ref(), op.Conversion.Kind, op.Conversion.Assigns),
		Hooks:         hooksOf(st.Shape, jsonOn, yamlOn),
		JSON:          jsonOn,
		YAML:          yamlOn,
	}
}

func unionOf(op shape.DecodeOperation, jsonOn, yamlOn bool) *unionView {
	st := op.Staging
	args := shape.TypeArgs(st.Generics)
	u := &unionView{
		Name:          op.Decl.Name,
		Ref:           op.Decl.Ref(),
		Staging:       st.Name,
		StagingRef:    st.Ref(),
		Box:           st.BoxName,
		BoxRef:        st.BoxName + args,
		StagingParams: paramList(st.Generics),
		FuncParams:    paramList(op.Bounds),
		Func:          op.Func,
		Assertions:    !op.Decl.IsGeneric(),
		JSON:          jsonOn,
		YAML:          yamlOn,
	}
	for i, arm := range op.Conversion.Arms {
		sv := st.Shape.Variants[i]
		target := arm.Variant
		if arm.Generic {
			target += args
		}
		v := variantView{
			Name:       arm.Variant,
			Real:       target,
			Staging:    arm.Staging,
			StagingRef: arm.Staging + args,
			Fields:     fieldLines(sv.Shape),
			Convert:    construct(target, arm.Kind, arm.Assigns),
			Hooks:      hooksOf(sv.Shape, jsonOn, yamlOn),
		}
		for _, b := range arm.Bindings {
			v.Bindings = append(v.Bindings, b.Name+" := "+b.From)
		}
		u.Variants = append(u.Variants, v)
	}
	quoted := make([]string, len(u.Variants))
	for i, v := range u.Variants {
		quoted[i] = strconv.Quote(v.Name)
	}
	u.VariantList = strings.Join(quoted, ", ")
	return u
}

func hooksOf(s shape.TypeShape, jsonOn, yamlOn bool) hooks {
	h := hooks{
		Positional: s.Kind == shape.KindPositional,
		Unit:       s.Kind == shape.KindUnit,
		JSON:       jsonOn,
		YAML:       yamlOn,
	}
	if h.Positional {
		var b strings.Builder
		for _, f := range s.Fields {
			b.WriteString(", &s.")
			b.WriteString(f.Name)
		}
		h.Targets = b.String()
	}
	return h
}

// fieldLines renders the fields of a staging record, one declaration per
// line.
func fieldLines(s shape.TypeShape) []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		var line string
		switch {
		case f.Embedded && f.Boxed == "":
			line = f.Type
		default:
			line = f.Name + " " + f.StagedType()
		}
		if f.Tag != "" {
			line += " " + quoteTag(f.Tag)
		}
		out = append(out, line)
	}
	return out
}

func quoteTag(tag string) string {
	if strings.ContainsRune(tag, '`') {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}

// construct renders the composite literal building a real value. Named
// fields are keyed; positional fields are not.
func construct(ref string, kind shape.Kind, assigns []shape.Assign) string {
	parts := make([]string, len(assigns))
	for i, a := range assigns {
		if kind == shape.KindNamed {
			parts[i] = a.Target + ": " + a.Source
		} else {
			parts[i] = a.Source
		}
	}
	return ref + "{" + strings.Join(parts, ", ") + "}"
}

// paramList renders a type parameter list with its constraints, e.g.
// "[T interface{ comparable; validdecode.Decodable }]".
func paramList(params []shape.GenericParam) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + " " + constraint(p.Bounds)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func constraint(bounds []string) string {
	switch len(bounds) {
	case 0:
		return "any"
	case 1:
		if strings.ContainsAny(bounds[0], "|~") {
			return "interface{ " + bounds[0] + " }"
		}
		return bounds[0]
	}
	return "interface{ " + strings.Join(bounds, "; ") + " }"
}

// Fingerprint summarizes the variant list of a union as a header line.
func Fingerprint(d shape.TypeDecl) string {
	names := make([]string, len(d.Shape.Variants))
	for i, v := range d.Shape.Variants {
		names[i] = v.Name
	}
	return fingerprintPrefix + d.Name + " " + strings.Join(names, ",")
}

// Fingerprints reads the union fingerprints from the header of a generated
// file, keyed by union name.
func Fingerprints(src []byte) map[string][]string {
	out := map[string][]string{}
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "package ") {
			break
		}
		rest, ok := strings.CutPrefix(line, "// "+fingerprintPrefix)
		if !ok {
			continue
		}
		name, variants, _ := strings.Cut(rest, " ")
		if variants == "" {
			out[name] = nil
			continue
		}
		out[name] = strings.Split(variants, ",")
	}
	return out
}
