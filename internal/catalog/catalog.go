// Package catalog defines the business field catalogs that spreadsheets are
// mapped onto.
//
// Catalogs are configuration, not code: the built-in ones ship as embedded
// YAML files and more can be loaded from a directory at startup. Once
// registered, a catalog is read-only.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/colmap/internal/automap"
)

// ErrUnknownCatalog is returned when a catalog key is not registered.
var ErrUnknownCatalog = errors.New("unknown catalog")

// Field is one business field in a catalog.
type Field struct {
	Key      string `yaml:"key" json:"key"`
	Label    string `yaml:"label" json:"label"`
	Required bool   `yaml:"required" json:"required"`
}

// Catalog is an ordered list of business fields. Field order is priority
// order for matching.
type Catalog struct {
	Key         string  `yaml:"key" json:"key"`
	Label       string  `yaml:"label" json:"label"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// AutomapFields returns the fields in the form the matcher consumes.
func (c Catalog) AutomapFields() []automap.Field {
	out := make([]automap.Field, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = automap.Field{Key: f.Key, Label: f.Label}
	}
	return out
}

// Field returns the field with the given key.
func (c Catalog) Field(key string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredKeys returns the keys of required fields in catalog order.
func (c Catalog) RequiredKeys() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f.Key)
		}
	}
	return out
}

// Validate checks that the catalog has a key and that field keys are
// present and unique. All problems are reported together.
func (c Catalog) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Key) == "" {
		errs = append(errs, "catalog key is required")
	}
	if len(c.Fields) == 0 {
		errs = append(errs, "catalog has no fields")
	}

	seen := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		switch {
		case strings.TrimSpace(f.Key) == "":
			errs = append(errs, fmt.Sprintf("field %d has no key", i+1))
		case seen[f.Key]:
			errs = append(errs, fmt.Sprintf("duplicate field key %q", f.Key))
		}
		seen[f.Key] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog %q: %s", c.Key, strings.Join(errs, "; "))
	}
	return nil
}
