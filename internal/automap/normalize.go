package automap

import (
	"regexp"
	"strings"
)

// nonWordRe matches anything that is neither an ASCII word character nor
// whitespace. RE2's \w and \s are ASCII-only.
var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// minKeywordLen is the exclusive lower bound on keyword length.
const minKeywordLen = 2

// Normalize lower-cases s and drops every byte that is not an ASCII letter or
// digit. Spaces, punctuation and non-ASCII characters are removed, not
// replaced.
func Normalize(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Keywords splits label into lower-case tokens longer than two characters.
// Punctuation separates tokens. Repeated tokens are kept.
func Keywords(label string) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(label), " ")

	var out []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) > minKeywordLen {
			out = append(out, tok)
		}
	}
	return out
}
