package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/colmap/internal/automap"
	"github.com/JonMunkholm/colmap/internal/mapping"
)

func (a *App) newValidateCommand() *cobra.Command {
	var (
		catalogKey  string
		sheetName   string
		mappingFile string
	)

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a saved mapping against a file's columns",
		Long: `Validate reads a mapping of field keys to column names from a YAML or
JSON file and checks it against the header row of a CSV or XLSX file.
It exits with an error when a required field is unmapped or a mapped
column does not exist.`,
		Example: `  colmap validate prices.xlsx --mapping mapping.yaml
  colmap validate prices.csv --catalog price_list --mapping mapping.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.lookupCatalog(catalogKey)
			if err != nil {
				return err
			}
			m, err := readMapping(mappingFile)
			if err != nil {
				return err
			}
			sh, err := a.readSheet(args[0], sheetName)
			if err != nil {
				return err
			}

			report := mapping.Validate(m, cat.Fields, sh.Headers)

			format, err := a.outputFormat()
			if err != nil {
				return err
			}
			err = render(a.out, format, report, func(w io.Writer) error {
				return writeReport(w, report)
			})
			if err != nil {
				return err
			}

			if !report.OK() {
				return fmt.Errorf("%w: %d error(s)", ErrMappingIncomplete, len(report.Errors))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&catalogKey, "catalog", "c", "", "catalog key (default CATALOG_DEFAULT)")
	flags.StringVar(&sheetName, "sheet", "", "worksheet name for XLSX files (default first sheet)")
	flags.StringVarP(&mappingFile, "mapping", "m", "", "YAML or JSON file of field: column pairs")
	cmd.MarkFlagRequired("mapping")
	return cmd
}

// readMapping parses a field-to-column mapping. JSON input is valid YAML.
func readMapping(path string) (automap.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m automap.Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m == nil {
		m = automap.Mapping{}
	}
	return m, nil
}
