// Package validdecode is the runtime of generated validated decoding.
//
// A type opts in with a //validdecode:generate directive and a
// Validate() error method. The validdecode command then generates, next to
// the type:
//
// - a staging type with the same shape that the decoder fills,
// - a pure conversion from the staging value to the real value,
// - UnmarshalJSON/UnmarshalYAML hooks and a DecodeX function that decode
// through the staging type and run Validate before returning the value.
//
// A value that decodes structurally but fails Validate is reported as a
// decode error (an Issue with code validation_failed wrapping the
// validator's error), so no invalid value is ever returned.
//
// Shapes:
//
// - Named structs decode from objects by field.
// - Structs marked //validdecode:positional decode from arrays; a single
// field decodes from the value itself.
// - Empty structs decode from null.
// - Interfaces sealed by one unexported marker method are tagged unions;
// their variants decode from {"Variant": payload} or "Variant".
//
// Typical usage:
//
//	p, err := model.DecodePerson(validdecode.JSONBytes(data))
//	v, err := model.DecodeValue(validdecode.NewYAMLDecoder(r))
//	people, err := validdecode.DecodeJSON[[]model.Person](data)
//
// JSON decoding goes through a swappable JSONDriver (go-json by default);
// StrictJSONDriver rejects duplicate object keys for untrusted input.
//
// Union fields treat null and absence differently, in both formats. An
// explicit null (JSON null, YAML null or ~) selects no variant and fails with
// invalid_type. A missing key leaves the field nil and decoding succeeds, so a
// required union field is checked in Validate. The bare YAML name Null still
// selects a variant called Null even though YAML reads it as a null.
package validdecode
