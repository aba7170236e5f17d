package i18n

import "sync"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "variant").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "parse_error":
			return "解析エラー"
		case "invalid_type":
			return "型が不正です"
		case "arity_mismatch":
			return "要素数が一致しません"
		case "unknown_variant":
			if v := data["variant"]; v != "" {
				return "未知のバリアントです: " + v
			}
			return "未知のバリアントです"
		case "duplicate_key":
			return "キーが重複しています"
		case "truncated":
			return "打ち切られました"
		case "validation_failed":
			return "検証に失敗しました"
		}
	default: // "en"
		switch code {
		case "parse_error":
			return "parse error"
		case "invalid_type":
			return "invalid type"
		case "arity_mismatch":
			if e := data["expected"]; e != "" {
				return "expected " + e + " elements"
			}
			return "wrong number of elements"
		case "unknown_variant":
			if v := data["variant"]; v != "" {
				return "unknown variant " + v
			}
			return "unknown variant"
		case "duplicate_key":
			return "duplicate key"
		case "truncated":
			return "truncated"
		case "validation_failed":
			return "validation failed"
		}
	}
	return code
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
