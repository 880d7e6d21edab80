package mapping

// validator.go checks a finished mapping against a catalog and the columns
// of the current sheet.
//
// Three kinds of issue are reported:
//  1. MissingMapping: a required field has no column (error)
//  2. InvalidMapping: a field points at a column the sheet does not have (error)
//  3. DuplicateMapping: one column is bound to several fields (warning)
//
// Validation is exhaustive. Every issue is collected so callers can show
// the whole picture at once.

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/colmap/internal/automap"
	"github.com/JonMunkholm/colmap/internal/catalog"
)

// Kind classifies a validation issue.
type Kind string

const (
	MissingMapping   Kind = "missing"
	InvalidMapping   Kind = "invalid"
	DuplicateMapping Kind = "duplicate"
)

// Issue is a single validation finding.
type Issue struct {
	Kind     Kind     `json:"kind"`
	FieldKey string   `json:"field,omitempty"`
	Column   string   `json:"column,omitempty"`
	Fields   []string `json:"fields,omitempty"` // DuplicateMapping only
	Message  string   `json:"message"`
}

func (i Issue) Error() string {
	return i.Message
}

// Report is the outcome of Validate.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// OK reports whether the mapping has no errors. Warnings do not count.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Err joins all errors, or returns nil when there are none.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, issue := range r.Errors {
		errs[i] = issue
	}
	return errors.Join(errs...)
}

// Validate checks m against the catalog fields and the sheet's columns.
func Validate(m automap.Mapping, fields []catalog.Field, columns []string) Report {
	r := Report{Errors: []Issue{}, Warnings: []Issue{}}

	labels := make(map[string]string, len(fields))
	for _, f := range fields {
		labels[f.Key] = f.Label
		if f.Required && m[f.Key] == "" {
			r.Errors = append(r.Errors, Issue{
				Kind:     MissingMapping,
				FieldKey: f.Key,
				Message:  fmt.Sprintf("%s: required field is not mapped", displayName(f.Key, f.Label)),
			})
		}
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	for _, key := range mappedKeys(m, fields) {
		col := m[key]
		if present[col] {
			continue
		}
		r.Errors = append(r.Errors, Issue{
			Kind:     InvalidMapping,
			FieldKey: key,
			Column:   col,
			Message:  fmt.Sprintf("%s: column %q not found in sheet", displayName(key, labels[key]), col),
		})
	}

	byColumn := make(map[string][]string)
	var order []string
	for _, key := range mappedKeys(m, fields) {
		col := m[key]
		if _, seen := byColumn[col]; !seen {
			order = append(order, col)
		}
		byColumn[col] = append(byColumn[col], key)
	}
	for _, col := range order {
		keys := byColumn[col]
		if len(keys) < 2 {
			continue
		}
		r.Warnings = append(r.Warnings, Issue{
			Kind:    DuplicateMapping,
			Column:  col,
			Fields:  keys,
			Message: fmt.Sprintf("column %q is mapped to %d fields: %s", col, len(keys), strings.Join(keys, ", ")),
		})
	}

	return r
}

// mappedKeys returns the keys of m with a non-empty column, catalog fields
// first in catalog order, then any other keys sorted.
func mappedKeys(m automap.Mapping, fields []catalog.Field) []string {
	keys := make([]string, 0, len(m))
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Key] = true
		if m[f.Key] != "" {
			keys = append(keys, f.Key)
		}
	}

	var extra []string
	for k, col := range m {
		if !known[k] && col != "" {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	return append(keys, extra...)
}

func displayName(key, label string) string {
	if label == "" {
		return key
	}
	return fmt.Sprintf("%s (%s)", label, key)
}
