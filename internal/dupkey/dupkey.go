// Package dupkey detects duplicate object keys in JSON input. Decoders keep
// the last occurrence silently, which lets a validated value disagree with
// what another consumer of the same bytes sees.
package dupkey

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ErrSyntax is returned for input that is not a single well-formed JSON
// value.
var ErrSyntax = errors.New("dupkey: malformed JSON")

// Duplicate describes one repeated key.
type Duplicate struct {
	Path string // JSON Pointer of the object holding the key.
	Key  string
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	segment      string // pointer segment of this container within its parent
	index        int    // next array index
}

// DetectBytes scans data and reports duplicate keys. maxDups < 0 means
// unlimited; otherwise scanning stops once maxDups duplicates were found.
// Malformed input yields ErrSyntax and no duplicates.
func DetectBytes(data []byte, maxDups int) ([]Duplicate, error) {
	// the go-json tokenizer does not report syntax errors
	if !json.Valid(data) {
		return nil, ErrSyntax
	}
	return scan(bytes.NewReader(data), maxDups)
}

// Detect is DetectBytes over a reader. It consumes r fully.
func Detect(r io.Reader, maxDups int) ([]Duplicate, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DetectBytes(data, maxDups)
}

func scan(r io.Reader, maxDups int) ([]Duplicate, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var dups []Duplicate
	var stack []frame
	pendingKey := ""

	// segment the next value occupies within the current container
	nextSegment := func() string {
		if len(stack) == 0 {
			return ""
		}
		top := &stack[len(stack)-1]
		if top.kind == kindArray {
			s := strconv.Itoa(top.index)
			top.index++
			return s
		}
		return pendingKey
	}
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return dups, nil
		}
		if err != nil {
			return dups, err
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				seg := nextSegment()
				stack = append(stack, frame{kind: kindObject, keys: make(map[string]struct{}), expectingKey: true, segment: seg})
			case '[':
				seg := nextSegment()
				stack = append(stack, frame{kind: kindArray, segment: seg})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				valueDone()
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.kind == kindObject && top.expectingKey {
					if _, ok := top.keys[v]; ok {
						dups = append(dups, Duplicate{Path: pointer(stack), Key: v})
						if maxDups >= 0 && len(dups) >= maxDups {
							return dups, nil
						}
					}
					top.keys[v] = struct{}{}
					top.expectingKey = false
					pendingKey = v
					continue
				}
			}
			nextSegment()
			valueDone()
		default:
			nextSegment()
			valueDone()
		}
	}
}

func pointer(stack []frame) string {
	if len(stack) <= 1 {
		return "/"
	}
	b := &strings.Builder{}
	for _, f := range stack[1:] {
		b.WriteByte('/')
		b.WriteString(escape(f.segment))
	}
	return b.String()
}

func escape(seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}
