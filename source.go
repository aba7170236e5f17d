package validdecode

import (
	"bytes"
	stdjson "encoding/json"
	"io"
	"sync"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Decoder is the decode capability: it reads the next value from an input
// stream into v. *json.Decoder (encoding/json and go-json) and *yaml.Decoder
// satisfy it.
type Decoder interface {
	Decode(v any) error
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(v any) error

func (f DecoderFunc) Decode(v any) error { return f(v) }

// JSONDriver decodes JSON for generated code via a pluggable SPI. The default
// implementation is backed by goccy/go-json and may be swapped with
// SetJSONDriver.
type JSONDriver interface {
	Unmarshal(data []byte, v any) error
	NewDecoder(r io.Reader) Decoder
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = goJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the go-json backed driver.
func UseDefaultJSONDriver() {
	jsonDriverMu.Lock()
	currentJSONDriver = goJSONDriver{}
	jsonDriverMu.Unlock()
}

// CurrentJSONDriver returns the driver generated code decodes JSON with.
func CurrentJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

// GoJSONDriver returns the default driver backed by goccy/go-json.
func GoJSONDriver() JSONDriver { return goJSONDriver{} }

type goJSONDriver struct{}

func (goJSONDriver) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (goJSONDriver) NewDecoder(r io.Reader) Decoder     { return json.NewDecoder(r) }
func (goJSONDriver) Name() string                       { return "go-json" }

// StdJSONDriver returns a driver backed by encoding/json.
func StdJSONDriver() JSONDriver { return stdJSONDriver{} }

type stdJSONDriver struct{}

func (stdJSONDriver) Unmarshal(data []byte, v any) error { return stdjson.Unmarshal(data, v) }
func (stdJSONDriver) NewDecoder(r io.Reader) Decoder     { return stdjson.NewDecoder(r) }
func (stdJSONDriver) Name() string                       { return "encoding/json" }

// UnmarshalJSON decodes data into v with the current JSON driver.
func UnmarshalJSON(data []byte, v any) error { return CurrentJSONDriver().Unmarshal(data, v) }

// JSONPayload returns a decode function bound to data. Generated UnmarshalJSON
// hooks hand it to decodeValidated.
func JSONPayload(data []byte) func(v any) error {
	return func(v any) error { return UnmarshalJSON(data, v) }
}

// NewJSONDecoder wraps r as a JSON Decoder using the current driver.
func NewJSONDecoder(r io.Reader) Decoder { return CurrentJSONDriver().NewDecoder(r) }

// JSONBytes wraps a byte slice as a JSON Decoder.
func JSONBytes(b []byte) Decoder { return NewJSONDecoder(bytes.NewReader(b)) }

// NewYAMLDecoder wraps r as a YAML Decoder.
func NewYAMLDecoder(r io.Reader) Decoder { return yaml.NewDecoder(r) }

// YAMLBytes wraps a byte slice as a YAML Decoder.
func YAMLBytes(b []byte) Decoder { return NewYAMLDecoder(bytes.NewReader(b)) }

// UnmarshalYAML decodes a YAML document into v.
func UnmarshalYAML(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// Decode reads one T from dec. Every validated record type decodes through
// its generated hooks, so the returned value has passed validation. Union
// types are interfaces and are decoded with their generated DecodeX function.
func Decode[T any](dec Decoder) (T, error) {
	var v T
	if err := dec.Decode(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// DecodeJSON decodes a JSON document into a T.
func DecodeJSON[T any](data []byte) (T, error) { return Decode[T](JSONBytes(data)) }

// DecodeYAML decodes a YAML document into a T.
func DecodeYAML[T any](data []byte) (T, error) { return Decode[T](YAMLBytes(data)) }
