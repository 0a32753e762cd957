package helpers

import (
	"errors"
	"strings"
)

// ErrNoJSON is returned when no balanced JSON value can be located.
var ErrNoJSON = errors.New("no balanced JSON object/array found")

// ExtractJSON finds and returns the first JSON object or array embedded in
// free text. Language-model output routinely wraps JSON in prose or code
// fences, so this strips a leading fence if present and then scans for a
// balanced {...} or [...] segment, ignoring braces inside strings.
func ExtractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)

	if inner, ok := stripFirstCodeFence(s); ok {
		s = strings.TrimSpace(inner)
	}

	if len(s) > 0 && (s[0] == '{' || s[0] == '[') {
		if out, ok := balancedJSONFrom(s, 0); ok {
			return out, nil
		}
	}

	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			if out, ok := balancedJSONFrom(s, i); ok {
				return out, nil
			}
		}
	}

	return "", ErrNoJSON
}

// stripFirstCodeFence removes the first fenced code block if s starts with
// ``` or ~~~, tolerating an optional language tag (```json).
func stripFirstCodeFence(s string) (string, bool) {
	trim := strings.TrimLeft(s, "\n\r\t ")
	fence := ""
	switch {
	case strings.HasPrefix(trim, "```"):
		fence = "```"
	case strings.HasPrefix(trim, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}
	rest := trim[len(fence):]
	idx := strings.IndexByte(rest, '\n')
	if idx == -1 {
		return "", false
	}
	rest = rest[idx+1:]
	if end := strings.Index(rest, fence); end != -1 {
		return rest[:end], true
	}
	return "", false
}

// balancedJSONFrom extracts a balanced JSON value starting at startIdx,
// handling nested containers, strings, and escape sequences.
func balancedJSONFrom(s string, startIdx int) (string, bool) {
	if startIdx < 0 || startIdx >= len(s) {
		return "", false
	}
	open := s[startIdx]
	if open != '{' && open != '[' {
		return "", false
	}

	var (
		stack    []byte
		inString bool
		escape   bool
	)
	stack = append(stack, open)

	for i := startIdx + 1; i < len(s); i++ {
		c := s[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			top := stack[len(stack)-1]
			if (top == '{' && c != '}') || (top == '[' && c != ']') {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[startIdx : i+1], true
			}
		}
	}
	return "", false
}
