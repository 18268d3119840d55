package ganjoor

import (
	"html"
	"regexp"
	"strings"
)

// verseDecoder attempts to extract verse lines from one carrier field of a
// poem payload. ok is false when the field is absent or trivial, in which
// case the next decoder in the chain is tried.
type verseDecoder struct {
	name   string
	decode func(p poemJSON) (lines []string, ok bool)
}

// verseDecoders is the ordered fallback chain: structured verses first, then
// the HTML body, then plain text, then the excerpt. The first decoder that
// yields at least one non-empty line wins.
var verseDecoders = []verseDecoder{
	{
		name: "verses",
		decode: func(p poemJSON) ([]string, bool) {
			if len(p.Verses) == 0 {
				return nil, false
			}
			lines := make([]string, 0, len(p.Verses))
			for _, v := range p.Verses {
				if t := strings.TrimSpace(v.Text); t != "" {
					lines = append(lines, t)
				}
			}
			return lines, len(lines) > 0
		},
	},
	{
		name: "htmlText",
		decode: func(p poemJSON) ([]string, bool) {
			lines := htmlToLines(p.HTMLText)
			return lines, len(lines) > 0
		},
	},
	{
		name: "plainText",
		decode: func(p poemJSON) ([]string, bool) {
			lines := splitLines(p.PlainText)
			return lines, len(lines) > 0
		},
	},
	{
		name: "excerpt",
		decode: func(p poemJSON) ([]string, bool) {
			lines := htmlToLines(p.Excerpt)
			return lines, len(lines) > 0
		},
	},
}

// extractVerses runs the decoder chain and returns the winning decoder's
// lines along with its name (for logging). A poem with no usable text
// returns an empty slice, never nil lines with empty strings.
func extractVerses(p poemJSON) (lines []string, source string) {
	for _, d := range verseDecoders {
		if out, ok := d.decode(p); ok {
			return out, d.name
		}
	}
	return []string{}, ""
}

var (
	// Tags that mark a line break in poem HTML.
	breakTagRe = regexp.MustCompile(`(?i)<\s*(?:br\s*/?|/?(?:div|p))\s*>`)
	// Every remaining tag is dropped.
	anyTagRe = regexp.MustCompile(`<[^>]*>`)
)

// htmlToLines converts poem HTML into clean verse lines: break-ish tags
// become newlines, all other tags are removed, entities are decoded, and the
// result is split into trimmed non-empty lines. Already-clean plain text
// passes through unchanged.
func htmlToLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	s = breakTagRe.ReplaceAllString(s, "\n")
	s = anyTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return splitLines(s)
}

// splitLines splits on newlines, trims each line, and drops empties.
func splitLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}
