package gen

import "text/template"

var fileTmpl = template.Must(template.New("file").Parse(fileTemplate))

const fileTemplate = `
{{- define "stagingHooks" -}}
{{- $h := .Hooks -}}
{{- if or $h.Positional $h.Unit }}
{{- if $h.JSON }}

func (s *{{.StagingRef}}) UnmarshalJSON(data []byte) error {
{{- if $h.Unit }}
	return validdecode.UnmarshalUnitJSON(data)
{{- else }}
	return validdecode.UnmarshalTupleJSON(data{{$h.Targets}})
{{- end }}
}
{{- end }}
{{- if $h.YAML }}

func (s *{{.StagingRef}}) UnmarshalYAML(node *yaml.Node) error {
{{- if $h.Unit }}
	return validdecode.UnmarshalUnitYAML(node)
{{- else }}
	return validdecode.UnmarshalTupleYAML(node{{$h.Targets}})
{{- end }}
}
{{- end }}
{{- end }}
{{- end -}}

{{- define "record" }}
// {{.Staging}} has the shape of {{.Name}} and is filled by the decoder
// before {{.Name}} is validated.
type {{.Staging}}{{.StagingParams}} struct {
{{- range .Fields }}
	{{.}}
{{- end }}
}
{{- template "stagingHooks" . }}

func (s {{.StagingRef}}) convert() {{.Ref}} {
	return {{.Convert}}
}

func (v *{{.Ref}}) decodeValidated(decode func(any) error) error {
	var staging {{.StagingRef}}
	if err := decode(&staging); err != nil {
		return err
	}
	out := staging.convert()
	if err := out.Validate(); err != nil {
		return validdecode.ValidationFailed("{{.Name}}", err)
	}
	*v = out
	return nil
}
{{- if .JSON }}

// UnmarshalJSON decodes a {{.Name}} and validates it.
func (v *{{.Ref}}) UnmarshalJSON(data []byte) error {
	return v.decodeValidated(validdecode.JSONPayload(data))
}
{{- end }}
{{- if .YAML }}

// UnmarshalYAML decodes a {{.Name}} and validates it.
func (v *{{.Ref}}) UnmarshalYAML(node *yaml.Node) error {
	return v.decodeValidated(validdecode.YAMLPayload(node))
}
{{- end }}

// {{.Func}} reads one {{.Name}} from dec. A value that fails Validate is
// reported as a decode error.
func {{.Func}}{{.FuncParams}}(dec validdecode.Decoder) ({{.Ref}}, error) {
	var v {{.Ref}}
	if err := v.decodeValidated(validdecode.DecodeFrom(dec)); err != nil {
		return {{.Ref}}{}, err
	}
	return v, nil
}
{{ end -}}

{{- define "union" }}
// {{.Staging}} is a staged {{.Name}} variant.
type {{.Staging}}{{.StagingParams}} interface {
	convert() {{.Ref}}
}
{{- range .Variants }}

type {{.Staging}}{{$.StagingParams}} struct {
{{- range .Fields }}
	{{.}}
{{- end }}
}
{{- template "stagingHooks" . }}

func (s {{.StagingRef}}) convert() {{$.Ref}} {
{{- range .Bindings }}
	{{.}}
{{- end }}
	return {{.Convert}}
}
{{- end }}

// {{.Box}} is the decode target of {{.Name}}.
type {{.Box}}{{.StagingParams}} struct {
	v {{.Ref}}
}

func (b *{{.BoxRef}}) decodeValidated(tag string, decode func(any) error) error {
	var staging {{.StagingRef}}
	switch tag {
{{- range .Variants }}
	case {{printf "%q" .Name}}:
		var s {{.StagingRef}}
		if err := decode(&s); err != nil {
			return err
		}
		staging = s
{{- end }}
	default:
		return validdecode.UnknownVariant("{{.Name}}", tag)
	}
	out := staging.convert()
	if err := out.Validate(); err != nil {
		return validdecode.ValidationFailed("{{.Name}}", err)
	}
	b.v = out
	return nil
}

func (*{{.BoxRef}}) Union() string { return {{printf "%q" .Name}} }

func (*{{.BoxRef}}) HasVariant(name string) bool {
	switch name {
	case {{.VariantList}}:
		return true
	}
	return false
}
{{- if .JSON }}

func (b *{{.BoxRef}}) UnmarshalJSON(data []byte) error {
	tag, payload, err := validdecode.SplitJSONVariant(data)
	if err != nil {
		return err
	}
	return b.decodeValidated(tag, validdecode.JSONPayload(payload))
}
{{- end }}
{{- if .YAML }}

func (b *{{.BoxRef}}) UnmarshalYAML(node *yaml.Node) error {
	tag, payload, err := validdecode.SplitYAMLVariant(node)
	if err != nil {
		return err
	}
	return b.decodeValidated(tag, validdecode.YAMLPayload(payload))
}
{{- end }}

// {{.Func}} reads one {{.Name}} from dec. A value that fails Validate is
// reported as a decode error.
func {{.Func}}{{.FuncParams}}(dec validdecode.Decoder) ({{.Ref}}, error) {
	var b {{.BoxRef}}
	if err := validdecode.DecodeFrom(dec)(&b); err != nil {
		return nil, err
	}
	if b.v == nil {
		return nil, validdecode.MissingVariant("{{.Name}}")
	}
	return b.v, nil
}
{{- if .Assertions }}

var (
{{- range .Variants }}
	_ {{$.Ref}} = {{.Real}}{}
{{- end }}
)
{{- end }}
{{ end -}}

// Code generated by validdecode. DO NOT EDIT.
{{- if .Fingerprints }}
//
{{- range .Fingerprints }}
// {{.}}
{{- end }}
{{- end }}

package {{.Package}}
{{- if .Imports }}

import (
{{- range .Imports }}
	{{if .Name}}{{.Name}} {{end}}{{printf "%q" .Path}}
{{- end }}
)
{{- end }}
{{ range .Decls }}
{{- if .Union }}{{ template "union" .Union }}{{ else }}{{ template "record" .Record }}{{ end }}
{{- end }}
`
