package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/colmap/internal/automap"
	"github.com/JonMunkholm/colmap/internal/catalog"
	"github.com/JonMunkholm/colmap/internal/logging"
	"github.com/JonMunkholm/colmap/internal/mapping"
	"github.com/JonMunkholm/colmap/internal/sheet"
)

// MapResult is the output of the map command.
type MapResult struct {
	Catalog     string                         `json:"catalog" yaml:"catalog"`
	File        string                         `json:"file" yaml:"file"`
	Sheet       string                         `json:"sheet" yaml:"sheet"`
	Columns     []string                       `json:"columns" yaml:"columns"`
	Mapping     automap.Mapping                `json:"mapping" yaml:"mapping"`
	Suggestions map[string][]automap.Candidate `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Report      mapping.Report                 `json:"report" yaml:"report"`

	fields  []catalog.Field
	samples map[string][]string
	pinned  automap.Mapping
}

func (a *App) newMapCommand() *cobra.Command {
	var (
		catalogKey  string
		sheetName   string
		strict      bool
		suggestions int
		pins        []string
	)

	cmd := &cobra.Command{
		Use:   "map <file>",
		Short: "Suggest a column for every catalog field",
		Long: `Map reads the header row of a CSV or XLSX file and assigns a column to
each field of the catalog. Use --pin to fix fields to columns yourself;
the remaining fields are matched around them.`,
		Example: `  colmap map prices.xlsx
  colmap map prices.csv --catalog price_list -o json
  colmap map prices.xlsx --sheet "FY25" --pin insurance="Insurance (1st yr)" --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.lookupCatalog(catalogKey)
			if err != nil {
				return err
			}
			sh, err := a.readSheet(args[0], sheetName)
			if err != nil {
				return err
			}

			pinned, err := parsePins(pins)
			if err != nil {
				return err
			}
			res, err := a.mapSheet(cat, sh, pinned, suggestions)
			if err != nil {
				return err
			}

			logging.WithFields(cmd.Context(), "catalog", cat.Key, "file", sh.File).Info("mapped sheet",
				"columns", len(sh.Headers),
				"mapped", len(res.Mapping),
				"errors", len(res.Report.Errors),
			)

			format, err := a.outputFormat()
			if err != nil {
				return err
			}
			if err := render(a.out, format, res, res.writeTable); err != nil {
				return err
			}

			if strict && !res.Report.OK() {
				return fmt.Errorf("%w: %d error(s)", ErrMappingIncomplete, len(res.Report.Errors))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&catalogKey, "catalog", "c", "", "catalog key (default CATALOG_DEFAULT)")
	flags.StringVar(&sheetName, "sheet", "", "worksheet name for XLSX files (default first sheet)")
	flags.BoolVar(&strict, "strict", false, "exit with an error when required fields are unmapped or invalid")
	flags.IntVar(&suggestions, "suggestions", 0, "ranked candidate columns to list per field")
	flags.StringArrayVar(&pins, "pin", nil, "fix a field to a column, as field=column (repeatable)")
	return cmd
}

// parsePins splits each field=column entry on its first '='. Column names
// may contain commas and further '=' signs.
func parsePins(entries []string) (map[string]string, error) {
	pins := make(map[string]string, len(entries))
	for _, e := range entries {
		key, col, ok := strings.Cut(e, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --pin %q: want field=column", e)
		}
		pins[key] = col
	}
	return pins, nil
}

// readSheet opens path and reads its header row with the upload limits.
func (a *App) readSheet(path, sheetName string) (*sheet.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sh, err := sheet.Read(path, f, sheet.Options{
		SampleRows: a.cfg.Upload.SampleRows,
		Sheet:      sheetName,
		MaxBytes:   a.cfg.Upload.MaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sh, nil
}

// mapSheet runs the matcher over sh with the given pins and validates the
// result against the full catalog.
func (a *App) mapSheet(cat catalog.Catalog, sh *sheet.Sheet, pins map[string]string, suggestions int) (*MapResult, error) {
	pinned := automap.Mapping{}
	for key, col := range pins {
		if _, ok := cat.Field(key); !ok {
			return nil, fmt.Errorf("%w: %s", mapping.ErrUnknownField, key)
		}
		if !contains(sh.Headers, col) {
			return nil, fmt.Errorf("%w: %q", mapping.ErrUnknownColumn, col)
		}
		pinned[key] = col
	}

	opts := a.cfg.Match.Options()
	fields := cat.AutomapFields()
	m := automap.ReconcileWith(fields, sh.Headers, pinned, opts)

	res := &MapResult{
		Catalog: cat.Key,
		File:    sh.File,
		Sheet:   sh.Name,
		Columns: sh.Headers,
		Mapping: m,
		Report:  mapping.Validate(m, cat.Fields, sh.Headers),
		fields:  cat.Fields,
		samples: make(map[string][]string, len(sh.Headers)),
		pinned:  pinned,
	}
	for i, col := range sh.Headers {
		if _, seen := res.samples[col]; !seen && i < len(sh.Samples) {
			res.samples[col] = sh.Samples[i]
		}
	}

	if suggestions > 0 {
		matcher := automap.NewMatcher(opts)
		res.Suggestions = make(map[string][]automap.Candidate, len(fields))
		for _, f := range fields {
			ranked := matcher.Rank(f, sh.Headers)
			if len(ranked) > suggestions {
				ranked = ranked[:suggestions]
			}
			res.Suggestions[f.Key] = ranked
		}
	}
	return res, nil
}

func (r *MapResult) writeTable(w io.Writer) error {
	headers := []string{"Field", "Key", "Column", "Samples"}
	if r.Suggestions != nil {
		headers = append(headers, "Candidates")
	}

	rows := make([][]string, 0, len(r.fields))
	for _, f := range r.fields {
		label := f.Label
		if f.Required {
			label += " *"
		}
		col := r.Mapping[f.Key]
		switch {
		case col == "":
			col = "-"
		case r.pinned[f.Key] != "":
			col += " (pinned)"
		}
		row := []string{label, f.Key, col, strings.Join(r.samples[r.Mapping[f.Key]], ", ")}
		if r.Suggestions != nil {
			row = append(row, formatCandidates(r.Suggestions[f.Key]))
		}
		rows = append(rows, row)
	}

	if err := writeTable(w, headers, rows); err != nil {
		return err
	}
	return writeReport(w, r.Report)
}

// writeReport prints the validation issues below a table.
func writeReport(w io.Writer, report mapping.Report) error {
	var b strings.Builder
	for _, issue := range report.Errors {
		fmt.Fprintf(&b, "error: %s\n", issue.Message)
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", issue.Message)
	}
	if report.OK() {
		b.WriteString("all required fields are mapped\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatCandidates(cands []automap.Candidate) string {
	parts := make([]string, len(cands))
	for i, c := range cands {
		parts[i] = c.Column + " (" + strconv.FormatFloat(c.Score, 'f', 2, 64) + ")"
	}
	return strings.Join(parts, "; ")
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
