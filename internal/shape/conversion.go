package shape

import (
	"go/ast"
	"go/parser"
	"strconv"
)

// Receiver is the name conversions use for the staging value; BoxField holds
// the real value inside a union box.
const (
	Receiver = "s"
	BoxField = "v"
)

// Assign moves one staging field into the real value. Target is empty for
// positional construction.
type Assign struct {
	Target string `yaml:"target,omitempty"`
	Source string `yaml:"source"`
}

// Binding destructures one staging field into a placeholder inside an arm.
type Binding struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`
}

// Arm reconstructs one real variant from its staging variant.
type Arm struct {
	Variant  string    `yaml:"variant"`
	Staging  string    `yaml:"staging"`
	Kind     Kind      `yaml:"kind"`
	Generic  bool      `yaml:"generic,omitempty"`
	Bindings []Binding `yaml:"bindings,omitempty"`
	Assigns  []Assign  `yaml:"assigns,omitempty"`
}

// Conversion is the pure, total mapping from a staging value to a real value.
// Records use Assigns; unions use one Arm per variant, in variant order.
type Conversion struct {
	Original string   `yaml:"original"`
	Staging  string   `yaml:"staging"`
	Kind     Kind     `yaml:"kind"`
	Assigns  []Assign `yaml:"assigns,omitempty"`
	Arms     []Arm    `yaml:"arms,omitempty"`
}

// BuildConversion derives the conversion between decl and its staging
// declaration.
func BuildConversion(decl TypeDecl, staging StagingDecl) (Conversion, error) {
	conv := Conversion{Original: decl.Name, Staging: staging.Name, Kind: decl.Shape.Kind}
	if decl.Shape.Kind != staging.Shape.Kind {
		return Conversion{}, newError(ExhaustivenessViolation, decl, "staging %s is %s, declaration is %s", staging.Name, staging.Shape.Kind, decl.Shape.Kind)
	}
	if decl.Shape.Kind != KindUnion {
		assigns, err := recordAssigns(decl, decl.Name, decl.Shape, staging.Shape)
		if err != nil {
			return Conversion{}, err
		}
		conv.Assigns = assigns
		return conv, nil
	}

	if len(staging.Shape.Variants) != len(decl.Shape.Variants) || len(staging.Variants) != len(decl.Shape.Variants) {
		return Conversion{}, newError(ExhaustivenessViolation, decl, "%d variants declared, %d staged", len(decl.Shape.Variants), len(staging.Shape.Variants))
	}
	for i, v := range decl.Shape.Variants {
		sv := staging.Shape.Variants[i]
		if sv.Name != v.Name {
			return Conversion{}, newError(ExhaustivenessViolation, decl, "variant %d is %s, staged as %s", i, v.Name, sv.Name)
		}
		arm, err := buildArm(decl, v, sv, staging.Variants[i])
		if err != nil {
			return Conversion{}, err
		}
		conv.Arms = append(conv.Arms, arm)
	}
	return conv, checkArms(decl, conv.Arms)
}

func recordAssigns(decl TypeDecl, owner string, real, staged TypeShape) ([]Assign, error) {
	if len(real.Fields) != len(staged.Fields) || real.Kind != staged.Kind {
		return nil, newError(ExhaustivenessViolation, decl, "%s has %d fields, staging has %d", owner, len(real.Fields), len(staged.Fields))
	}
	var out []Assign
	seen := map[string]struct{}{}
	for i, f := range real.Fields {
		sf := staged.Fields[i]
		src := Receiver + "." + sf.Name
		if sf.Boxed != "" {
			src += "." + BoxField
		}
		switch real.Kind {
		case KindNamed:
			target := f.Name
			if f.Embedded {
				target = embeddedName(f.Type)
			}
			if _, dup := seen[target]; dup {
				return nil, newError(ExhaustivenessViolation, decl, "%s field %s assigned twice", owner, target)
			}
			seen[target] = struct{}{}
			out = append(out, Assign{Target: target, Source: src})
		case KindPositional:
			if sf.Name != PositionalName(i) {
				return nil, newError(ExhaustivenessViolation, decl, "%s position %d staged as %s", owner, i, sf.Name)
			}
			out = append(out, Assign{Source: src})
		}
	}
	return out, nil
}

func buildArm(decl TypeDecl, real, staged VariantShape, stagingType string) (Arm, error) {
	arm := Arm{Variant: real.Name, Staging: stagingType, Kind: real.Shape.Kind, Generic: real.Generic}
	assigns, err := recordAssigns(decl, real.Name, real.Shape, staged.Shape)
	if err != nil {
		return Arm{}, err
	}
	if real.Shape.Kind != KindPositional {
		arm.Assigns = assigns
		return arm, nil
	}
	// Positional payloads carry no names: bind each position to a
	// placeholder that is unique within the arm.
	for i, a := range assigns {
		name := "v" + strconv.Itoa(i)
		arm.Bindings = append(arm.Bindings, Binding{Name: name, From: a.Source})
		arm.Assigns = append(arm.Assigns, Assign{Source: name})
	}
	return arm, nil
}

// checkArms enforces exactly one arm per declared variant.
func checkArms(decl TypeDecl, arms []Arm) error {
	want := map[string]int{}
	for _, v := range decl.Shape.Variants {
		want[v.Name]++
	}
	for _, a := range arms {
		if want[a.Variant] != 1 {
			return newError(ExhaustivenessViolation, decl, "arm for %s does not match exactly one variant", a.Variant)
		}
		want[a.Variant]--
	}
	for name, n := range want {
		if n != 0 {
			return newError(ExhaustivenessViolation, decl, "no arm for variant %s", name)
		}
	}
	return nil
}

// embeddedName is the implicit field name of an embedded type: the type name
// without package qualifier, pointer, or type arguments.
func embeddedName(typ string) string {
	expr, err := parser.ParseExpr(typ)
	if err != nil {
		return typ
	}
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.SelectorExpr:
			return e.Sel.Name
		case *ast.Ident:
			return e.Name
		default:
			return typ
		}
	}
}
