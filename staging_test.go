package validdecode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/reoring/validdecode"
)

func issueCode(t *testing.T, err error) string {
	t.Helper()
	iss, ok := validdecode.AsIssues(err)
	require.True(t, ok, "expected Issues, got %v", err)
	require.NotEmpty(t, iss)
	return iss[0].Code
}

func yamlNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	if doc.Kind == yaml.DocumentNode {
		return doc.Content[0]
	}
	return &doc
}

func TestUnmarshalTupleJSON(t *testing.T) {
	var s string
	var n int
	require.NoError(t, validdecode.UnmarshalTupleJSON([]byte(`["a", 2]`), &s, &n))
	assert.Equal(t, "a", s)
	assert.Equal(t, 2, n)

	// one target decodes the value itself
	var only int
	require.NoError(t, validdecode.UnmarshalTupleJSON([]byte(`7`), &only))
	assert.Equal(t, 7, only)

	// zero targets want an empty array
	require.NoError(t, validdecode.UnmarshalTupleJSON([]byte(`[]`)))
	assert.Equal(t, validdecode.CodeArityMismatch, issueCode(t, validdecode.UnmarshalTupleJSON([]byte(`[1]`))))

	assert.Equal(t, validdecode.CodeArityMismatch, issueCode(t, validdecode.UnmarshalTupleJSON([]byte(`["a"]`), &s, &n)))
	assert.Equal(t, validdecode.CodeArityMismatch, issueCode(t, validdecode.UnmarshalTupleJSON([]byte(`["a",1,2]`), &s, &n)))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, validdecode.UnmarshalTupleJSON([]byte(`{"a":1}`), &s, &n)))
	assert.Equal(t, validdecode.CodeParseError, issueCode(t, validdecode.UnmarshalTupleJSON([]byte(`[1,`), &s, &n)))

	err := validdecode.UnmarshalTupleJSON([]byte(`[1, 2]`), &s, &n)
	require.Error(t, err)
	_, isIssues := validdecode.AsIssues(err)
	assert.False(t, isIssues, "element errors come from the decoder unchanged")
}

func TestUnmarshalTupleJSON_ArityHint(t *testing.T) {
	var a, b int
	iss, ok := validdecode.AsIssues(validdecode.UnmarshalTupleJSON([]byte(`[1,2,3]`), &a, &b))
	require.True(t, ok)
	assert.Equal(t, "expected 2 elements", iss[0].Message)
	assert.Equal(t, "got 3", iss[0].Hint)
}

func TestUnmarshalTupleYAML(t *testing.T) {
	var s string
	var n int
	require.NoError(t, validdecode.UnmarshalTupleYAML(yamlNode(t, "[a, 2]"), &s, &n))
	assert.Equal(t, "a", s)
	assert.Equal(t, 2, n)

	var only string
	require.NoError(t, validdecode.UnmarshalTupleYAML(yamlNode(t, "hello"), &only))
	assert.Equal(t, "hello", only)

	require.NoError(t, validdecode.UnmarshalTupleYAML(yamlNode(t, "[]")))
	assert.Equal(t, validdecode.CodeArityMismatch, issueCode(t, validdecode.UnmarshalTupleYAML(yamlNode(t, "[a]"), &s, &n)))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, validdecode.UnmarshalTupleYAML(yamlNode(t, "a: 1"), &s, &n)))

	// aliases resolve to their anchor
	root := yamlNode(t, "base: &p [b, 3]\nref: *p\n")
	require.NoError(t, validdecode.UnmarshalTupleYAML(root.Content[3], &s, &n))
	assert.Equal(t, "b", s)
	assert.Equal(t, 3, n)
}

func TestUnmarshalUnit(t *testing.T) {
	require.NoError(t, validdecode.UnmarshalUnitJSON([]byte(` null `)))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, validdecode.UnmarshalUnitJSON([]byte(`{}`))))
	assert.Equal(t, validdecode.CodeParseError, issueCode(t, validdecode.UnmarshalUnitJSON([]byte(`nul`))))

	require.NoError(t, validdecode.UnmarshalUnitYAML(yamlNode(t, "~")))
	require.NoError(t, validdecode.UnmarshalUnitYAML(yamlNode(t, "null")))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, validdecode.UnmarshalUnitYAML(yamlNode(t, "'null'"))))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, validdecode.UnmarshalUnitYAML(yamlNode(t, "[]"))))
}

func TestSplitJSONVariant(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTag     string
		wantPayload string
		wantCode    string
	}{
		{name: "object", input: `{"Int": 5}`, wantTag: "Int", wantPayload: "5"},
		{name: "nested", input: `{"String":{"name":"x"}}`, wantTag: "String", wantPayload: `{"name":"x"}`},
		{name: "bare", input: `"Null"`, wantTag: "Null", wantPayload: "null"},
		{name: "two_keys", input: `{"A":1,"B":2}`, wantCode: validdecode.CodeInvalidType},
		{name: "empty", input: `{}`, wantCode: validdecode.CodeInvalidType},
		{name: "array", input: `[1]`, wantCode: validdecode.CodeInvalidType},
		{name: "null", input: `null`, wantCode: validdecode.CodeInvalidType},
		{name: "malformed", input: `{"A":`, wantCode: validdecode.CodeParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, payload, err := validdecode.SplitJSONVariant([]byte(tt.input))
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, issueCode(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTag, tag)
			assert.Equal(t, tt.wantPayload, string(payload))
		})
	}
}

func TestSplitYAMLVariant(t *testing.T) {
	tag, payload, err := validdecode.SplitYAMLVariant(yamlNode(t, "Int: 5"))
	require.NoError(t, err)
	assert.Equal(t, "Int", tag)
	assert.Equal(t, "5", payload.Value)

	tag, payload, err = validdecode.SplitYAMLVariant(yamlNode(t, "Null"))
	require.NoError(t, err)
	assert.Equal(t, "Null", tag)
	assert.Equal(t, "!!null", payload.ShortTag())

	_, _, err = validdecode.SplitYAMLVariant(yamlNode(t, "{A: 1, B: 2}"))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, err))
	_, _, err = validdecode.SplitYAMLVariant(yamlNode(t, "[A]"))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, err))
	_, _, err = validdecode.SplitYAMLVariant(yamlNode(t, "12"))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, err))
	_, _, err = validdecode.SplitYAMLVariant(yamlNode(t, "~"))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, err))
	_, _, err = validdecode.SplitYAMLVariant(yamlNode(t, "!!null Null"))
	assert.Equal(t, validdecode.CodeInvalidType, issueCode(t, err))

	// plain identifiers name variants whatever YAML resolves them to
	for _, src := range []string{"True", "NULL", "'12'"} {
		tag, _, err = validdecode.SplitYAMLVariant(yamlNode(t, src))
		require.NoError(t, err, src)
		assert.Equal(t, strings.Trim(src, "'"), tag)
	}
}

func TestVariantIssues(t *testing.T) {
	iss, ok := validdecode.AsIssues(validdecode.UnknownVariant("Value", "Float"))
	require.True(t, ok)
	assert.Equal(t, validdecode.CodeUnknownVariant, iss[0].Code)
	assert.Equal(t, `unknown variant "Float"`, iss[0].Message)
	assert.Equal(t, "not a variant of Value", iss[0].Hint)

	iss, ok = validdecode.AsIssues(validdecode.MissingVariant("Value"))
	require.True(t, ok)
	assert.Equal(t, validdecode.CodeInvalidType, iss[0].Code)
	assert.Contains(t, iss[0].Hint, "Value")
}
