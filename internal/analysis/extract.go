package analysis

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject returns the first balanced {...} span in text. Braces
// inside string literals are ignored and backslash escapes are honoured, so
// prose before or after the object and braces in field values are harmless.
func ExtractJSONObject(text string) (string, bool) {
	return extractBalanced(text, '{', '}')
}

// ExtractJSONArray is ExtractJSONObject for [...] spans.
func ExtractJSONArray(text string) (string, bool) {
	return extractBalanced(text, '[', ']')
}

func extractBalanced(text string, open, closing byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	end, ok := matchFrom(text, start, open, closing)
	if !ok {
		return "", false
	}
	return text[start : end+1], true
}

// matchFrom scans from the opener at start and returns the index of its
// matching closer.
func matchFrom(text string, start int, open, closing byte) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// decodeObject decodes the first balanced {...} span in text that is valid
// JSON for T. Spans that fail to decode, such as "{roughly}" in prose before
// the real object, are skipped and scanning resumes after them.
func decodeObject[T any](text, what string) (T, error) {
	var zero T
	var lastErr error
	for start := strings.IndexByte(text, '{'); start >= 0; {
		resume := start + 1
		if end, ok := matchFrom(text, start, '{', '}'); ok {
			var v T
			err := json.Unmarshal([]byte(text[start:end+1]), &v)
			if err == nil {
				return v, nil
			}
			lastErr = err
			resume = end + 1
		}
		next := strings.IndexByte(text[resume:], '{')
		if next < 0 {
			break
		}
		start = resume + next
	}
	if lastErr != nil {
		return zero, malformed("decode %s: %v", what, lastErr)
	}
	return zero, malformed("no JSON object in reply")
}
