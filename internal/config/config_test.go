package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/validdecode/internal/gen"
)

func TestLoad_Missing(t *testing.T) {
	c, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	_, err = Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	src := "output: zz_decode.go\nformats: [json]\ntypes:\n  - Person\n  - Value\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(src), 0o644))

	c, err := Load(dir, "")
	require.NoError(t, err)
	want := Config{
		Output:  "zz_decode.go",
		Formats: []string{"json"},
		Types:   []string{"Person", "Value"},
		Prefix:  "validdecode",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, filepath.Join(dir, "zz_decode.go"), c.OutputPath(dir))
	formats, err := c.ParsedFormats()
	require.NoError(t, err)
	assert.Equal(t, []gen.Format{gen.FormatJSON}, formats)
}

func TestDecode_UnknownKey(t *testing.T) {
	_, err := Decode(strings.NewReader("ouput: x.go\n"))
	assert.Error(t, err)

	c, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Config{}, c)
}

func TestMerge(t *testing.T) {
	base := Default()
	got := base.Merge(Config{Types: []string{"A"}, Prefix: "vd"})
	assert.Equal(t, []string{"A"}, got.Types)
	assert.Equal(t, "vd", got.Prefix)
	assert.Equal(t, DefaultOutput, got.Output)
	assert.Nil(t, base.Types, "Merge does not modify the receiver")
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
	cases := map[string]Config{
		"not_go":     {Output: "out.txt"},
		"test_file":  {Output: "x_test.go"},
		"format":     {Output: "x.go", Formats: []string{"xml"}},
		"prefix":     {Output: "x.go", Prefix: "9lives"},
		"prefix_sym": {Output: "x.go", Prefix: "a-b"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.Validate())
		})
	}
	assert.Equal(t, "/abs/out.go", Config{Output: "/abs/out.go"}.OutputPath("/pkg"))
}
