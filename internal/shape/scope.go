package shape

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// DefaultPrefix starts every identifier the generator introduces.
const DefaultPrefix = "validdecode"

// Scope tracks the package-level identifiers of one generated file: the
// names users declared, the names already handed out, and which
// declarations of the generation set are unions.
type Scope struct {
	prefix    string
	taken     map[string]struct{}
	staging   map[string]string
	boxes     map[string]string
	unions    map[string]struct{}
	generated map[string]struct{}
}

// NewScope returns a Scope whose user-visible names are declared. An empty
// prefix selects DefaultPrefix.
func NewScope(prefix string, declared []string) *Scope {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &Scope{
		prefix:    prefix,
		taken:     make(map[string]struct{}, len(declared)),
		staging:   map[string]string{},
		boxes:     map[string]string{},
		unions:    map[string]struct{}{},
		generated: map[string]struct{}{},
	}
	for _, n := range declared {
		s.taken[n] = struct{}{}
	}
	return s
}

// Prefix returns the reserved identifier prefix.
func (s *Scope) Prefix() string { return s.prefix }

// Declare registers the declarations of the generation set.
func (s *Scope) Declare(decls ...TypeDecl) {
	for _, d := range decls {
		s.generated[d.Name] = struct{}{}
		if d.Shape.Kind == KindUnion {
			s.unions[d.Name] = struct{}{}
		}
	}
}

// IsUnion reports whether name is a union of the generation set.
func (s *Scope) IsUnion(name string) bool {
	_, ok := s.unions[name]
	return ok
}

// IsGenerated reports whether name belongs to the generation set.
func (s *Scope) IsGenerated(name string) bool {
	_, ok := s.generated[name]
	return ok
}

// Taken reports whether name is declared in the package or was handed out.
func (s *Scope) Taken(name string) bool {
	_, ok := s.taken[name]
	return ok
}

// StagingName returns the staging type name for original. Repeated calls
// return the same name.
func (s *Scope) StagingName(original string) string {
	if n, ok := s.staging[original]; ok {
		return n
	}
	n := s.fresh(s.prefix + exportedTail(original))
	s.staging[original] = n
	return n
}

// BoxName returns the name of the decode target wrapping union.
func (s *Scope) BoxName(union string) string {
	if n, ok := s.boxes[union]; ok {
		return n
	}
	n := s.fresh(s.StagingName(union) + "Box")
	s.boxes[union] = n
	return n
}

// VariantName returns the staging type name of one union variant.
func (s *Scope) VariantName(union, variant string) string {
	return s.fresh(s.StagingName(union) + exportedTail(variant))
}

// Claim reserves an exact name, reporting false when it is already taken.
func (s *Scope) Claim(name string) bool {
	if s.Taken(name) {
		return false
	}
	s.taken[name] = struct{}{}
	return true
}

func (s *Scope) fresh(base string) string {
	name := base
	for i := 1; s.Taken(name); i++ {
		name = base + strconv.Itoa(i)
	}
	s.taken[name] = struct{}{}
	return name
}

// exportedTail upper-cases the first rune so that "person" yields
// "validdecodePerson" rather than "validdecodeperson".
func exportedTail(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
