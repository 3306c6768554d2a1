package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// CleanText normalizes extracted text for prompting: folds Unicode to its
// decomposed form, drops combining marks and non-printable characters, and
// collapses runs of whitespace to single spaces.
func CleanText(text string) string {
	decomposed := norm.NFKD.String(text)

	var sb strings.Builder
	sb.Grow(len(decomposed))
	prevSpace := true
	for _, r := range decomposed {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.Is(unicode.Mn, r):
			// Combining marks left over from decomposition.
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// Truncate caps text at limit bytes, cutting back to the last space to avoid
// splitting a word mid-token. The cut never lands inside a multibyte rune.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	cut := text[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
