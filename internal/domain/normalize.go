package domain

import (
	"strings"
)

// Arabic codepoints that appear in upstream text interchangeably with their
// Persian forms, plus the zero-width non-joiner used inside compound words.
const (
	arabicYeh       = 'ي' // ي
	arabicKaf       = 'ك' // ك
	persianYeh      = 'ی' // ی
	persianKaf      = 'ک' // ک
	zeroWidthNonJnr = '‌'
)

// NormalizeText prepares Persian text for storage and comparison:
//   - trims leading/trailing whitespace
//   - lowercases (affects Latin characters in mixed text)
//   - maps Arabic yeh/kaf to their Persian forms
//   - converts zero-width non-joiners to plain spaces
//   - compresses runs of whitespace into a single space
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		switch r {
		case arabicYeh:
			r = persianYeh
		case arabicKaf:
			r = persianKaf
		case zeroWidthNonJnr, '\t', '\n', '\r':
			r = ' '
		}
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// titleMatchLenDelta is the maximum rune-length difference under which a
// category title containing (or contained in) the poet name is still treated
// as a duplicate of it.
const titleMatchLenDelta = 3

// TitleMatchesPoet reports whether a category title is effectively the poet's
// own name. Upstream imports often create a top-level category named after
// the poet; those are noise in category listings.
func TitleMatchesPoet(title, poetName string) bool {
	t := NormalizeText(title)
	p := NormalizeText(poetName)
	if t == "" || p == "" {
		return false
	}
	if t == p {
		return true
	}

	delta := len([]rune(t)) - len([]rune(p))
	if delta < 0 {
		delta = -delta
	}
	if delta >= titleMatchLenDelta {
		return false
	}
	return strings.Contains(t, p) || strings.Contains(p, t)
}
