// Package corpus fetches, loads, and filters the training text.
package corpus

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultCharset keeps ASCII letters and the space.
const DefaultCharset = "a-zA-Z "

// ErrMissing is returned by Load when the corpus file does not exist.
var ErrMissing = errors.New("corpus file not found")

// Charset is a set of allowed runes.
type Charset map[rune]struct{}

// ParseCharset expands a charset spec such as "a-zA-Z ." into a set.
// A dash is literal when it appears first or last.
func ParseCharset(spec string) (Charset, error) {
	runes := []rune(spec)
	if len(runes) == 0 {
		return nil, fmt.Errorf("charset is empty")
	}
	set := Charset{}
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' {
			lo, hi := runes[i], runes[i+2]
			if lo > hi {
				return nil, fmt.Errorf("invalid charset range %c-%c", lo, hi)
			}
			for r := lo; r <= hi; r++ {
				set[r] = struct{}{}
			}
			i += 2
			continue
		}
		set[runes[i]] = struct{}{}
	}
	return set, nil
}

// Contains reports whether r is allowed.
func (c Charset) Contains(r rune) bool {
	_, ok := c[r]
	return ok
}

// Filter maps whitespace to spaces, drops runes outside the charset,
// collapses space runs, and trims the result.
func Filter(text string, charset Charset) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range text {
		if unicode.IsSpace(r) {
			r = ' '
		}
		if r == ' ' {
			if lastSpace || !charset.Contains(' ') {
				continue
			}
			lastSpace = true
			b.WriteRune(r)
			continue
		}
		if !charset.Contains(r) {
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

// Load reads the corpus at path and filters it with charset.
func Load(path string, charset Charset) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return "", fmt.Errorf("failed to read corpus: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("corpus is not valid UTF-8: %s", path)
	}
	text := Filter(string(data), charset)
	if utf8.RuneCountInString(text) < 3 {
		return "", fmt.Errorf("corpus is empty after filtering: %s", path)
	}
	return text, nil
}
