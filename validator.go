package validdecode

// Validator is implemented by every type that validdecode generates a decode
// operation for. Validate reports why a fully decoded value is unacceptable.
type Validator interface {
	Validate() error
}

// Validated runs v.Validate and returns v itself when it succeeds.
func Validated[T Validator](v T) (T, error) {
	if err := v.Validate(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Decodable is the bound that generated decode functions add to each type
// parameter of a validated type. Every Go type satisfies it; a decoder that
// cannot produce a value of the instantiated type (channels, funcs) reports
// that as an ordinary decode failure.
type Decodable interface{}
