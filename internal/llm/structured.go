package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator checks a decoded value.
type SchemaValidator[T any] func(T) error

// MissingFieldsError lists required keys absent from a JSON object.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing fields: " + strings.Join(e.Fields, ", ")
}

// ExtractObject isolates the first JSON object in raw model output and
// normalizes it into valid JSON text. Code fences, surrounding prose,
// comments and bare leading decimals are tolerated.
func ExtractObject(raw string) (string, error) {
	obj := firstObject(dropFenceLines(raw))
	if obj == "" {
		return "", fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}
	return sanitize(obj), nil
}

// RequireFields checks that every named key is present and not null.
func RequireFields(jsonStr string, fields ...string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	var missing []string
	for _, f := range fields {
		v, ok := obj[f]
		if !ok || string(v) == "null" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// ExtractJSON decodes the first JSON object in raw into T and runs
// validator on it when non-nil.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	jsonStr, err := ExtractObject(raw)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %w", ErrInvalidOutput, err)
		}
	}

	return result, nil
}

// dropFenceLines removes markdown fence lines such as ```json and ```.
func dropFenceLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "```") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// lexer tracks whether a byte stream is inside a JSON string literal.
type lexer struct {
	inString bool
	escaped  bool
}

// quoted consumes c and reports whether it belongs to a string literal,
// quotes included.
func (l *lexer) quoted(c byte) bool {
	switch {
	case l.escaped:
		l.escaped = false
		return true
	case l.inString && c == '\\':
		l.escaped = true
		return true
	case c == '"':
		l.inString = !l.inString
		return true
	}
	return l.inString
}

// firstObject returns the first balanced {...} block, or "".
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	var lx lexer
	depth := 0
	for i := start; i < len(s); i++ {
		c := s[i]
		if lx.quoted(c) {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// sanitize drops // and /* */ comments outside strings and rewrites bare
// decimals like .8 or -.3 as 0.8 and -0.3. Models emit both despite the
// prompt asking for strict JSON.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	var lx lexer
	for i := 0; i < len(s); i++ {
		c := s[i]
		if lx.quoted(c) {
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i+1 < len(s) && s[i+1] != '\n' {
					i++
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					i = len(s)
				} else {
					i += end + 3
				}
				continue
			}
		}
		if c == '.' && i+1 < len(s) && isDigit(s[i+1]) && startsNumber(lastNonSpace(b.String())) {
			b.WriteByte('0')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func lastNonSpace(s string) byte {
	t := strings.TrimRight(s, " \t\r\n")
	if t == "" {
		return 0
	}
	return t[len(t)-1]
}

func startsNumber(prev byte) bool {
	switch prev {
	case 0, ':', ',', '[', '{', '-':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
