package automap

import (
	"strings"

	lev "github.com/texttheater/golang-levenshtein/levenshtein"
)

// substringScore is the score given when one string contains the other.
const substringScore = 0.8

// Similarity scores how alike a and b are, in [0, 1].
//
// Both inputs are normalized first. Identical strings score 1.0, a string
// containing the other scores 0.8, and anything else scores
// 1 - distance/maxLen using the Levenshtein distance.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)

	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return substringScore
	}

	maxLen := max(len(na), len(nb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(na, nb))/float64(maxLen)
}

// unitCosts prices every insertion, deletion and substitution at 1.
var unitCosts = lev.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: lev.IdenticalRunes,
}

// Levenshtein returns the minimum number of single-rune insertions,
// deletions and substitutions that turn a into b.
func Levenshtein(a, b string) int {
	return lev.DistanceForStrings([]rune(a), []rune(b), unitCosts)
}
