package searchindex

import (
	"strings"
	"unicode"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// Token length bounds in runes. Single-letter fragments are noise; anything
// past maxTokenLen is malformed input.
const (
	minTokenLen = 2
	maxTokenLen = 50
)

// tokenize normalizes text (Arabic ya/kaf to Persian, ZWNJ to space, case
// folding) and splits it into indexable tokens.
func tokenize(text string) []string {
	normalized := domain.NormalizeText(text)
	if normalized == "" {
		return nil
	}

	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		n := len([]rune(w))
		if n < minTokenLen || n > maxTokenLen {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// stripWhitespace removes all spaces from an already-normalized query. Persian
// compounds are often written solid or spaced interchangeably; the stripped
// form is the fallback when the spaced query comes up short.
func stripWhitespace(query string) string {
	return strings.ReplaceAll(domain.NormalizeText(query), " ", "")
}
