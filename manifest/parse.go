package manifest

import (
	"fmt"
	"strings"
)

// Parse extracts the version and asset list from a manifest payload.
//
// The payload grammar is two statements, order-independent, anywhere in
// the text: an assignment binding a string constant (the version) and
// an assignment binding an array of string literals (the assets). All
// surrounding content is ignored. An assignment whose identifier names
// the field ("version", "assets") is preferred; otherwise the first
// assignment of the matching shape wins. Payload content is never
// evaluated.
func Parse(data []byte) (*Manifest, error) {
	var (
		stringCands []candidate[string]
		arrayCands  []candidate[[]string]
	)

	for i := 0; i < len(data); i++ {
		if data[i] != '=' {
			continue
		}
		// Skip comparison and arrow operators.
		if i > 0 {
			switch data[i-1] {
			case '=', '!', '<', '>':
				continue
			}
		}
		if i+1 < len(data) && (data[i+1] == '=' || data[i+1] == '>') {
			i++
			continue
		}

		ident := identBefore(data, i)
		j := skipSpace(data, i+1)
		if j >= len(data) {
			break
		}

		switch data[j] {
		case '"', '\'':
			value, end, ok := scanString(data, j)
			if !ok {
				continue
			}
			stringCands = append(stringCands, candidate[string]{ident, value})
			i = end - 1
		case '[':
			values, end, ok := scanStringArray(data, j)
			if !ok {
				continue
			}
			arrayCands = append(arrayCands, candidate[[]string]{ident, values})
			i = end - 1
		}
	}

	version, ok := pick(stringCands, "version")
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrParse, ErrMissingVersion)
	}
	if version == "" {
		return nil, fmt.Errorf("%w: version is empty", ErrParse)
	}
	assets, ok := pick(arrayCands, "asset")
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrParse, ErrMissingAssets)
	}

	return &Manifest{Version: version, Assets: assets}, nil
}

type candidate[T any] struct {
	ident string
	value T
}

// pick chooses the first candidate whose identifier mentions the field
// name, falling back to the first candidate of the shape.
func pick[T any](cands []candidate[T], field string) (T, bool) {
	for _, c := range cands {
		if strings.Contains(strings.ToLower(c.ident), field) {
			return c.value, true
		}
	}
	if len(cands) > 0 {
		return cands[0].value, true
	}
	var zero T
	return zero, false
}

// identBefore extracts the identifier immediately preceding the '=' at
// data[i], if any.
func identBefore(data []byte, i int) string {
	end := i
	for end > 0 && isSpace(data[end-1]) {
		end--
	}
	start := end
	for start > 0 && isIdent(data[start-1]) {
		start--
	}
	return string(data[start:end])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isIdent(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func skipSpace(data []byte, i int) int {
	for i < len(data) && isSpace(data[i]) {
		i++
	}
	return i
}

// scanString reads a quoted string literal starting at data[i], which
// must be a quote character. Supports backslash escapes. Returns the
// unescaped value and the index just past the closing quote.
func scanString(data []byte, i int) (string, int, bool) {
	quote := data[i]
	var out []byte
	for j := i + 1; j < len(data); j++ {
		switch data[j] {
		case '\\':
			if j+1 >= len(data) {
				return "", 0, false
			}
			j++
			out = append(out, data[j])
		case quote:
			return string(out), j + 1, true
		case '\n':
			// String literals don't span lines.
			return "", 0, false
		default:
			out = append(out, data[j])
		}
	}
	return "", 0, false
}

// scanStringArray reads an array literal starting at data[i] ('[')
// whose elements are all string literals. A trailing comma is allowed.
// Anything else inside the brackets makes the candidate invalid.
func scanStringArray(data []byte, i int) ([]string, int, bool) {
	values := []string{}
	j := skipSpace(data, i+1)
	for j < len(data) {
		switch data[j] {
		case ']':
			return values, j + 1, true
		case '"', '\'':
			value, end, ok := scanString(data, j)
			if !ok {
				return nil, 0, false
			}
			values = append(values, value)
			j = skipSpace(data, end)
			if j < len(data) && data[j] == ',' {
				j = skipSpace(data, j+1)
			} else if j < len(data) && data[j] != ']' {
				return nil, 0, false
			}
		default:
			return nil, 0, false
		}
	}
	return nil, 0, false
}
