package shape

import "fmt"

// ErrorKind classifies generation-time failures.
type ErrorKind int

const (
	_ ErrorKind = iota
	UnsupportedShape
	MissingValidator
	Conflict
	ExhaustivenessViolation
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedShape:
		return "unsupported shape"
	case MissingValidator:
		return "missing validator"
	case Conflict:
		return "conflict"
	case ExhaustivenessViolation:
		return "exhaustiveness violation"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error aborts generation for one declaration.
type Error struct {
	Kind ErrorKind
	Decl string // declaration name
	Pos  string // source position, if known
	Msg  string
}

// Sentinels for errors.Is; they match any Error of the same kind.
var (
	ErrUnsupportedShape        = &Error{Kind: UnsupportedShape}
	ErrMissingValidator        = &Error{Kind: MissingValidator}
	ErrConflict                = &Error{Kind: Conflict}
	ErrExhaustivenessViolation = &Error{Kind: ExhaustivenessViolation}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Decl != "" {
		msg = e.Decl + ": " + msg
	}
	if e.Pos != "" {
		msg = e.Pos + ": " + msg
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	return msg
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Decl == "" && t.Msg == ""
}

func newError(kind ErrorKind, d TypeDecl, format string, args ...any) *Error {
	return &Error{Kind: kind, Decl: d.Name, Pos: d.Pos, Msg: fmt.Sprintf(format, args...)}
}

// Errorf builds an Error for a declaration known only by name and position.
func Errorf(kind ErrorKind, decl, pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Decl: decl, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
