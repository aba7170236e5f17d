package validdecode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/validdecode/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeParseError     = "parse_error"
	CodeInvalidType    = "invalid_type"
	CodeArityMismatch  = "arity_mismatch"
	CodeUnknownVariant = "unknown_variant"
	CodeDuplicateKey   = "duplicate_key"
	CodeTruncated      = "truncated"
	// Raised after a structurally valid value was produced.
	CodeValidationFailed = "validation_failed"
)

// Issue represents a single decode or validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected shapes, etc.
	Cause   error  // Optional: underlying error.
	// Rule optionally records what produced this issue, e.g. "Person.Validate".
	Rule string
}

// Issues is a collection of decode errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		path := it.Path
		if path == "" {
			path = "/"
		}
		// e.g. validation_failed at /: name cannot be empty
		fmt.Fprintf(b, "%s at %s", it.Code, path)
		if it.Message != "" {
			b.WriteString(": ")
			b.WriteString(it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the underlying causes to errors.Is and errors.As.
func (iss Issues) Unwrap() []error {
	var causes []error
	for _, it := range iss {
		if it.Cause != nil {
			causes = append(causes, it.Cause)
		}
	}
	return causes
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ValidationFailed converts the error returned by typeName's Validate method
// into a decode error. The validator's description becomes the issue message.
func ValidationFailed(typeName string, err error) error {
	if err == nil {
		return nil
	}
	return Issues{{
		Code:    CodeValidationFailed,
		Message: err.Error(),
		Cause:   err,
		Rule:    typeName + ".Validate",
	}}
}

// IsValidation reports whether err carries a validation_failed issue.
func IsValidation(err error) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if it.Code == CodeValidationFailed {
			return true
		}
	}
	return false
}

func singleIssue(code, hint string) Issues {
	return AppendIssues(nil, Issue{Path: "/", Code: code, Message: i18n.T(code, nil), Hint: hint})
}
