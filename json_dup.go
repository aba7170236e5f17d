package validdecode

import (
	"io"

	json "github.com/goccy/go-json"

	"github.com/reoring/validdecode/i18n"
	"github.com/reoring/validdecode/internal/dupkey"
)

// StrictJSONDriver wraps inner so that input containing duplicate object keys
// is rejected with duplicate_key issues before inner decodes it.
func StrictJSONDriver(inner JSONDriver) JSONDriver {
	if inner == nil {
		inner = goJSONDriver{}
	}
	return strictJSONDriver{inner: inner}
}

type strictJSONDriver struct{ inner JSONDriver }

func (d strictJSONDriver) Unmarshal(data []byte, v any) error {
	if err := DetectJSONDuplicateKeys(data); err != nil {
		return err
	}
	return d.inner.Unmarshal(data, v)
}

func (d strictJSONDriver) NewDecoder(r io.Reader) Decoder {
	dec := d.inner.NewDecoder(r)
	return DecoderFunc(func(v any) error {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		return d.Unmarshal(raw, v)
	})
}

func (d strictJSONDriver) Name() string { return "strict(" + d.inner.Name() + ")" }

// MaxDuplicateIssues bounds the duplicate_key issues reported for one input.
const MaxDuplicateIssues = 32

// DetectJSONDuplicateKeys returns Issues listing the duplicate keys in data,
// or nil when there is none. Malformed input is left to the decoder.
func DetectJSONDuplicateKeys(data []byte) error {
	dups, err := dupkey.DetectBytes(data, MaxDuplicateIssues+1)
	if err != nil || len(dups) == 0 {
		return nil
	}
	truncated := len(dups) > MaxDuplicateIssues
	if truncated {
		dups = dups[:MaxDuplicateIssues]
	}
	var iss Issues
	for _, d := range dups {
		iss = AppendIssues(iss, Issue{
			Path:    d.Path,
			Code:    CodeDuplicateKey,
			Message: i18n.T(CodeDuplicateKey, nil),
			Hint:    "key '" + d.Key + "' duplicated",
		})
	}
	if truncated {
		iss = AppendIssues(iss, Issue{Path: "/", Code: CodeTruncated, Message: i18n.T(CodeTruncated, nil), Hint: "more duplicate keys omitted"})
	}
	return iss
}
