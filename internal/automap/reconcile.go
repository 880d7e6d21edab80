package automap

import (
	"sort"
	"strings"
)

// Mapping maps a field key to the header assigned to it.
type Mapping map[string]string

// Clone returns a copy of m.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// claims is the set of headers already assigned during one run.
type claims map[string]struct{}

func (c claims) has(col string) bool {
	_, ok := c[col]
	return ok
}

// with returns a new set containing c plus cols. c is not modified.
func (c claims) with(cols ...string) claims {
	out := make(claims, len(c)+len(cols))
	for col := range c {
		out[col] = struct{}{}
	}
	for _, col := range cols {
		out[col] = struct{}{}
	}
	return out
}

// pool returns the unclaimed headers in input order.
func (c claims) pool(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		if !c.has(col) {
			out = append(out, col)
		}
	}
	return out
}

// Reconcile assigns headers to fields.
//
// Exact matches are claimed for the whole catalog first, then cleaned-exact
// matches, then fuzzy matches with longer labels choosing first. No header
// is assigned twice. Fields without an acceptable header are absent from the
// result.
func Reconcile(fields []Field, columns []string, opts Options) Mapping {
	return ReconcileWith(fields, columns, nil, opts)
}

// ReconcileWith is Reconcile with some assignments fixed in advance.
//
// Pinned fields are copied into the result unchanged and skipped by every
// pass; their headers are unavailable to other fields. Pins naming a field
// outside fields are still copied.
func ReconcileWith(fields []Field, columns []string, pinned Mapping, opts Options) Mapping {
	m := NewMatcher(opts)

	result := pinned.Clone()
	taken := claims{}
	for _, col := range pinned {
		taken = taken.with(col)
	}

	open := make([]Field, 0, len(fields))
	for _, f := range fields {
		if _, ok := result[f.Key]; !ok {
			open = append(open, f)
		}
	}

	stages := []func([]Field, []string, claims) (Mapping, claims){
		exactPass,
		cleanedPass,
		m.fuzzyPass,
	}
	for _, stage := range stages {
		var found Mapping
		found, taken = stage(open, columns, taken)
		for k, v := range found {
			result[k] = v
		}
		open = unmapped(open, found)
	}

	return result
}

// FuzzyOrder returns fields sorted by label word count, longest first.
// Fields with equal counts keep their catalog order.
func FuzzyOrder(fields []Field) []Field {
	out := append([]Field(nil), fields...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(strings.Fields(out[i].Label)) > len(strings.Fields(out[j].Label))
	})
	return out
}

func exactPass(fields []Field, columns []string, taken claims) (Mapping, claims) {
	return greedyPass(fields, columns, taken, func(f Field, pool []string) (string, bool) {
		return exactMatch(newProfile(f), pool)
	})
}

func cleanedPass(fields []Field, columns []string, taken claims) (Mapping, claims) {
	return greedyPass(fields, columns, taken, func(f Field, pool []string) (string, bool) {
		return cleanedMatch(newProfile(f), pool)
	})
}

func (m *Matcher) fuzzyPass(fields []Field, columns []string, taken claims) (Mapping, claims) {
	return greedyPass(FuzzyOrder(fields), columns, taken, m.BestMatch)
}

// greedyPass visits fields in order and claims the header match returns from
// the pool of still unclaimed headers.
func greedyPass(fields []Field, columns []string, taken claims, match func(Field, []string) (string, bool)) (Mapping, claims) {
	found := Mapping{}
	for _, f := range fields {
		pool := taken.pool(columns)
		if len(pool) == 0 {
			break
		}
		if col, ok := match(f, pool); ok {
			found[f.Key] = col
			taken = taken.with(col)
		}
	}
	return found, taken
}

func unmapped(fields []Field, found Mapping) []Field {
	out := fields[:0:0]
	for _, f := range fields {
		if _, ok := found[f.Key]; !ok {
			out = append(out, f)
		}
	}
	return out
}
