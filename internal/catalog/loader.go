package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed builtin/*.yaml
var builtinFiles embed.FS

// Parse decodes and validates one YAML catalog.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// LoadDir parses every *.yaml and *.yml file directly inside dir, in file
// name order. Subdirectories are ignored.
func LoadDir(dir string) ([]Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	catalogs := make([]Catalog, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		c, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		catalogs = append(catalogs, c)
	}

	return catalogs, nil
}

// Builtin returns the catalogs embedded in the binary.
func Builtin() ([]Catalog, error) {
	entries, err := fs.ReadDir(builtinFiles, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin catalogs: %w", err)
	}

	catalogs := make([]Catalog, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		data, err := builtinFiles.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read builtin %s: %w", e.Name(), err)
		}
		c, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
		catalogs = append(catalogs, c)
	}

	return catalogs, nil
}

// Load registers the embedded catalogs and, when dir is not empty,
// every catalog in dir. A catalog in dir may not reuse a built-in key.
func Load(dir string) error {
	catalogs, err := Builtin()
	if err != nil {
		return err
	}

	if dir != "" {
		extra, err := LoadDir(dir)
		if err != nil {
			return err
		}
		catalogs = append(catalogs, extra...)
	}

	for _, c := range catalogs {
		if err := Add(c); err != nil {
			return err
		}
	}
	return nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
