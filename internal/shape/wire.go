package shape

// DecodeOperation is everything needed to emit the validated decode entry
// points of one declaration. It is emitted once per declaration and is
// generic over the same parameters.
type DecodeOperation struct {
	Decl       TypeDecl    `yaml:"decl"`
	Staging    StagingDecl `yaml:"staging"`
	Conversion Conversion  `yaml:"conversion"`
	// Bounds is the final bound set of the decode function: declared bounds,
	// where predicates, and DecodableBound, deduplicated per parameter.
	Bounds []GenericParam `yaml:"bounds,omitempty"`
	// Func is the exported decode function name, e.g. "DecodePerson".
	Func string `yaml:"func"`
}

// Wire assembles the decode operation of decl and claims its exported
// function name in scope.
func Wire(decl TypeDecl, staging StagingDecl, conv Conversion, scope *Scope) (DecodeOperation, error) {
	if staging.Original != decl.Name || conv.Original != decl.Name || conv.Staging != staging.Name {
		return DecodeOperation{}, newError(ExhaustivenessViolation, decl, "staging %s and conversion %s->%s do not belong together", staging.Name, conv.Staging, conv.Original)
	}
	fn := "Decode" + exportedTail(decl.Name)
	if !scope.Claim(fn) {
		return DecodeOperation{}, newError(Conflict, decl, "%s is already declared", fn)
	}
	return DecodeOperation{
		Decl:       decl,
		Staging:    staging,
		Conversion: conv,
		Bounds:     PropagateBounds(decl),
		Func:       fn,
	}, nil
}

// PropagateBounds computes the bound set of every parameter of decl: its
// declared bounds, then the where predicates naming it, then DecodableBound
// for type parameters. Duplicates are dropped and first occurrence order is
// kept.
func PropagateBounds(decl TypeDecl) []GenericParam {
	out := make([]GenericParam, len(decl.Generics))
	for i, p := range decl.Generics {
		bounds := appendUnique(nil, p.Bounds...)
		for _, w := range decl.Where {
			if w.Param == p.Name {
				bounds = appendUnique(bounds, w.Bound)
			}
		}
		if p.Kind == ParamType {
			bounds = appendUnique(bounds, DecodableBound)
		}
		out[i] = GenericParam{Kind: p.Kind, Name: p.Name, Bounds: bounds}
	}
	return out
}

// Pipeline runs the three derivation stages for every declaration of a
// generation set, in order. The scope learns about the whole set first so
// that union-typed fields resolve regardless of declaration order.
func Pipeline(decls []TypeDecl, scope *Scope) ([]DecodeOperation, error) {
	scope.Declare(decls...)
	ops := make([]DecodeOperation, 0, len(decls))
	for _, d := range decls {
		st, err := SynthesizeStaging(d, scope)
		if err != nil {
			return nil, err
		}
		conv, err := BuildConversion(d, st)
		if err != nil {
			return nil, err
		}
		op, err := Wire(d, st, conv, scope)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}
