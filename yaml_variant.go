package validdecode

import (
	"reflect"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// VariantBox is implemented by the generated decode target of every union.
//
// yaml.v3 resolves the plain scalars null, Null, NULL and ~ to !!null and
// never calls UnmarshalYAML for null nodes. Before a node reaches a box, a
// plain null scalar that names one of the union's variants is re-tagged as a
// string, and any other null is reported as a missing variant.
type VariantBox interface {
	// Union names the union the box decodes.
	Union() string
	// HasVariant reports whether name is a variant of the union.
	HasVariant(name string) bool
}

var variantBoxType = reflect.TypeOf((*VariantBox)(nil)).Elem()

// YAMLPayload returns a decode function bound to node. Generated
// UnmarshalYAML hooks hand it to decodeValidated.
func YAMLPayload(node *yaml.Node) func(v any) error {
	return func(v any) error {
		n, err := prepareYAML(node, v)
		if err != nil {
			return err
		}
		return n.Decode(v)
	}
}

// DecodeFrom returns a decode function reading the next value from dec.
// When dec is a *yaml.Decoder and the target holds union boxes, the value is
// read as a node first and decoded with YAMLPayload; such reads do not honor
// the decoder's KnownFields setting.
func DecodeFrom(dec Decoder) func(v any) error {
	yd, ok := dec.(*yaml.Decoder)
	if !ok {
		return dec.Decode
	}
	return func(v any) error {
		if !holdsVariants(reflect.TypeOf(v)) {
			return yd.Decode(v)
		}
		var node yaml.Node
		if err := yd.Decode(&node); err != nil {
			return err
		}
		return YAMLPayload(&node)(v)
	}
}

func holdsVariants(t reflect.Type) bool {
	if t == nil || t.Kind() != reflect.Pointer {
		return false
	}
	if t.Implements(variantBoxType) {
		return true
	}
	return t.Elem().Kind() == reflect.Struct && len(boxFields(t.Elem())) > 0
}

// prepareYAML returns node, or a copy of it whose variant names are tagged
// as strings, for decoding into out. node itself is never modified.
func prepareYAML(node *yaml.Node, out any) (*yaml.Node, error) {
	n := resolveAlias(node)
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = resolveAlias(n.Content[0])
	}
	if box, ok := out.(VariantBox); ok {
		return variantNode(n, box, "/")
	}
	t := reflect.TypeOf(out)
	if n.Kind != yaml.MappingNode || t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return node, nil
	}
	boxes := boxFields(t.Elem())
	if len(boxes) == 0 {
		return node, nil
	}
	var cp *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		box, ok := boxes[key]
		if !ok {
			continue
		}
		val, err := variantNode(n.Content[i+1], box, "/"+escapePointer(key))
		if err != nil {
			return nil, err
		}
		if val == n.Content[i+1] {
			continue
		}
		if cp == nil {
			c := *n
			c.Content = append([]*yaml.Node(nil), n.Content...)
			cp = &c
		}
		cp.Content[i+1] = val
	}
	if cp == nil {
		return node, nil
	}
	return cp, nil
}

func variantNode(n *yaml.Node, box VariantBox, path string) (*yaml.Node, error) {
	r := resolveAlias(n)
	if r.Kind != yaml.ScalarNode || r.ShortTag() != "!!null" {
		return n, nil
	}
	if r.Style&yaml.TaggedStyle == 0 && box.HasVariant(r.Value) {
		c := *r
		c.Tag = "!!str"
		return &c, nil
	}
	return nil, missingVariantAt(path, box.Union())
}

var boxFieldCache sync.Map // reflect.Type -> map[string]VariantBox

// boxFields maps the YAML keys of t's union box fields to a box of the
// field's type.
func boxFields(t reflect.Type) map[string]VariantBox {
	if c, ok := boxFieldCache.Load(t); ok {
		return c.(map[string]VariantBox)
	}
	var m map[string]VariantBox
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || !reflect.PointerTo(f.Type).Implements(variantBoxType) {
			continue
		}
		key, ok := yamlKey(f)
		if !ok {
			continue
		}
		if m == nil {
			m = map[string]VariantBox{}
		}
		m[key] = reflect.New(f.Type).Interface().(VariantBox)
	}
	boxFieldCache.Store(t, m)
	return m
}

// yamlKey is the mapping key yaml.v3 decodes f from.
func yamlKey(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("yaml")
	if tag == "" && !strings.Contains(string(f.Tag), ":") {
		tag = string(f.Tag)
	}
	if tag == "-" {
		return "", false
	}
	name, flags, _ := strings.Cut(tag, ",")
	if strings.Contains(flags, "inline") {
		return "", false
	}
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	return name, true
}

func escapePointer(seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}
