package nlp

import (
	"errors"
	"regexp"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object found in model response")

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \\t]*\\r?\\n?(.*?)```")

// ExtractJSONObject pulls the first top level {...} object out of free form
// model output. A fenced code block, when present, narrows the search to its
// contents. Braces inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, error) {
	body := text
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		body = m[1]
	}

	if obj, ok := firstObject(body); ok {
		return obj, nil
	}
	// a fence holding prose: fall back to the whole text
	if body != text {
		if obj, ok := firstObject(text); ok {
			return obj, nil
		}
	}
	return "", ErrNoJSONObject
}

func firstObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
