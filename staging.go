package validdecode

import (
	"strconv"
	"unicode"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/reoring/validdecode/i18n"
)

// Helpers called by the hooks of generated staging types. They are part of
// the decode capability: every error they return is a decode failure.

// UnmarshalTupleJSON decodes a positional payload into targets, in order.
// One target decodes the value itself; otherwise data must be an array with
// exactly len(targets) elements.
func UnmarshalTupleJSON(data []byte, targets ...any) error {
	if len(targets) == 1 {
		return UnmarshalJSON(data, targets[0])
	}
	if !gjson.ValidBytes(data) {
		return singleIssue(CodeParseError, "malformed JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return singleIssue(CodeInvalidType, "expected array of "+strconv.Itoa(len(targets))+" elements")
	}
	elems := res.Array()
	if len(elems) != len(targets) {
		return arityIssue(len(targets), len(elems))
	}
	for i, e := range elems {
		if err := UnmarshalJSON([]byte(e.Raw), targets[i]); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalTupleYAML is UnmarshalTupleJSON for a YAML node.
func UnmarshalTupleYAML(node *yaml.Node, targets ...any) error {
	node = resolveAlias(node)
	if len(targets) == 1 {
		return YAMLPayload(node)(targets[0])
	}
	if node.Kind != yaml.SequenceNode {
		return singleIssue(CodeInvalidType, "expected sequence of "+strconv.Itoa(len(targets))+" elements")
	}
	if len(node.Content) != len(targets) {
		return arityIssue(len(targets), len(node.Content))
	}
	for i, e := range node.Content {
		if err := YAMLPayload(e)(targets[i]); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalUnitJSON accepts only a JSON null.
func UnmarshalUnitJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return singleIssue(CodeParseError, "malformed JSON")
	}
	if gjson.ParseBytes(data).Type != gjson.Null {
		return singleIssue(CodeInvalidType, "expected null")
	}
	return nil
}

// UnmarshalUnitYAML accepts only a YAML null.
func UnmarshalUnitYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!null" {
		return singleIssue(CodeInvalidType, "expected null")
	}
	return nil
}

// SplitJSONVariant reads an externally tagged union value: an object with
// exactly one key naming the variant, or a bare string naming a variant
// without payload (the returned payload is then null).
func SplitJSONVariant(data []byte) (tag string, payload []byte, err error) {
	if !gjson.ValidBytes(data) {
		return "", nil, singleIssue(CodeParseError, "malformed JSON")
	}
	res := gjson.ParseBytes(data)
	switch {
	case res.Type == gjson.String:
		return res.Str, []byte("null"), nil
	case res.IsObject():
		n := 0
		res.ForEach(func(k, v gjson.Result) bool {
			n++
			tag = k.Str
			payload = []byte(v.Raw)
			return n < 2
		})
		if n != 1 {
			return "", nil, singleIssue(CodeInvalidType, "expected object with exactly one variant key")
		}
		return tag, payload, nil
	default:
		return "", nil, singleIssue(CodeInvalidType, "expected variant object or variant name")
	}
}

var yamlNull = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}

// SplitYAMLVariant is SplitJSONVariant for a YAML node. A bare variant name
// may be any string or any plain scalar spelled as an identifier, so Null and
// True name variants even though YAML resolves them to other types.
func SplitYAMLVariant(node *yaml.Node) (tag string, payload *yaml.Node, err error) {
	node = resolveAlias(node)
	switch {
	case node.Kind == yaml.ScalarNode && (node.ShortTag() == "!!str" || plainIdent(node)):
		return node.Value, yamlNull, nil
	case node.Kind == yaml.MappingNode:
		if len(node.Content) != 2 {
			return "", nil, singleIssue(CodeInvalidType, "expected mapping with exactly one variant key")
		}
		return node.Content[0].Value, node.Content[1], nil
	default:
		return "", nil, singleIssue(CodeInvalidType, "expected variant mapping or variant name")
	}
}

// UnknownVariant reports a variant name that union does not declare.
func UnknownVariant(union, tag string) error {
	return AppendIssues(nil, Issue{
		Path:    "/",
		Code:    CodeUnknownVariant,
		Message: i18n.T(CodeUnknownVariant, map[string]string{"variant": strconv.Quote(tag)}),
		Hint:    "not a variant of " + union,
	})
}

// MissingVariant reports a union value that selected no variant, such as a
// YAML null decoded into the union's box.
func MissingVariant(union string) error {
	return missingVariantAt("/", union)
}

func missingVariantAt(path, union string) error {
	return AppendIssues(nil, Issue{
		Path:    path,
		Code:    CodeInvalidType,
		Message: i18n.T(CodeInvalidType, nil),
		Hint:    "expected a variant of " + union,
	})
}

func arityIssue(want, got int) error {
	return AppendIssues(nil, Issue{
		Path:    "/",
		Code:    CodeArityMismatch,
		Message: i18n.T(CodeArityMismatch, map[string]string{"expected": strconv.Itoa(want)}),
		Hint:    "got " + strconv.Itoa(got),
	})
}

func plainIdent(n *yaml.Node) bool {
	return n.Style&yaml.TaggedStyle == 0 && isIdent(n.Value)
}

func isIdent(s string) bool {
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return s != ""
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node == nil {
		return yamlNull
	}
	return node
}
