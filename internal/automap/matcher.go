package automap

import (
	"sort"
	"strings"
)

// keywordFloor is the minimum keyword-pair score when the field keyword
// appears verbatim in the header.
const keywordFloor = 0.7

// Field is a business field as seen by the matcher.
type Field struct {
	Key   string
	Label string
}

// Candidate is a header together with its fuzzy score.
type Candidate struct {
	Column string  `json:"column"`
	Score  float64 `json:"score"`
}

// Matcher finds the best header for one field at a time.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	opts Options
}

// NewMatcher creates a matcher. Zero-valued numeric options take defaults.
func NewMatcher(opts Options) *Matcher {
	opts = opts.withDefaults()
	opts.Denylist = lowerTokens(opts.Denylist)
	opts.BoostTokens = lowerTokens(opts.BoostTokens)
	return &Matcher{opts: opts}
}

// Options returns the effective options.
func (m *Matcher) Options() Options {
	return m.opts
}

// profile caches the derived forms of a field.
type profile struct {
	key, label           string
	keyLower, labelLower string
	keyNorm, labelNorm   string
	keywords             []string
}

func newProfile(f Field) profile {
	return profile{
		key:        f.Key,
		label:      f.Label,
		keyLower:   strings.ToLower(f.Key),
		labelLower: strings.ToLower(f.Label),
		keyNorm:    Normalize(f.Key),
		labelNorm:  Normalize(f.Label),
		keywords:   Keywords(f.Label),
	}
}

// BestMatch returns the header in pool that best fits field.
//
// An exact case-insensitive match on key or label wins first, then a
// cleaned-exact match, then the highest fuzzy score at or above the
// threshold. Pool order breaks ties: the earliest header wins.
func (m *Matcher) BestMatch(field Field, pool []string) (string, bool) {
	p := newProfile(field)

	if col, ok := exactMatch(p, pool); ok {
		return col, true
	}
	if col, ok := cleanedMatch(p, pool); ok {
		return col, true
	}
	return m.fuzzyMatch(p, pool)
}

// Score returns the fuzzy score of column for field. The second result is
// false when the column is denylisted and would never be scored.
func (m *Matcher) Score(field Field, column string) (float64, bool) {
	return m.score(newProfile(field), column)
}

// Rank scores every non-denylisted header in pool for field, highest first.
// Equal scores keep pool order.
func (m *Matcher) Rank(field Field, pool []string) []Candidate {
	p := newProfile(field)

	out := make([]Candidate, 0, len(pool))
	for _, col := range pool {
		if s, ok := m.score(p, col); ok {
			out = append(out, Candidate{Column: col, Score: s})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// exactMatch returns the first header equal to key or label, ignoring case.
func exactMatch(p profile, pool []string) (string, bool) {
	for _, col := range pool {
		lower := strings.ToLower(col)
		if lower == p.keyLower || lower == p.labelLower {
			return col, true
		}
	}
	return "", false
}

// cleanedMatch returns the first header whose normalized form equals the
// normalized key or label.
func cleanedMatch(p profile, pool []string) (string, bool) {
	for _, col := range pool {
		norm := Normalize(col)
		if norm == p.keyNorm || norm == p.labelNorm {
			return col, true
		}
	}
	return "", false
}

func (m *Matcher) fuzzyMatch(p profile, pool []string) (string, bool) {
	var (
		best      string
		bestScore float64
		found     bool
	)

	for _, col := range pool {
		s, ok := m.score(p, col)
		if !ok {
			continue
		}
		if !found || s > bestScore {
			best, bestScore, found = col, s, true
		}
	}

	if !found || bestScore < m.opts.Threshold {
		return "", false
	}
	return best, true
}

func (m *Matcher) score(p profile, column string) (float64, bool) {
	lower := strings.ToLower(column)
	if m.denied(lower) {
		return 0, false
	}

	var s float64
	if containsEither(p.keyLower, lower) || containsEither(p.labelLower, lower) {
		s = substringScore
	} else {
		s = max(Similarity(p.key, column), Similarity(p.label, column), keywordScore(p, lower))
	}

	// Boosts stack and are not clamped.
	if s < substringScore {
		for _, tok := range m.opts.BoostTokens {
			if strings.Contains(p.keyLower, tok) && strings.Contains(lower, tok) {
				s += m.opts.BoostWeight
			}
		}
	}

	return s, true
}

func (m *Matcher) denied(lower string) bool {
	for _, tok := range m.opts.Denylist {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// keywordScore is the best similarity between any field keyword and any
// header keyword.
func keywordScore(p profile, lower string) float64 {
	colWords := Keywords(lower)

	var best float64
	for _, fk := range p.keywords {
		literal := strings.Contains(lower, fk)
		for _, ck := range colWords {
			s := Similarity(fk, ck)
			if literal && s < keywordFloor {
				s = keywordFloor
			}
			if s > best {
				best = s
			}
		}
	}
	return best
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// lowerTokens lower-cases tokens and drops empty ones, which would otherwise
// match every header.
func lowerTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ToLower(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
