// Package sheet reads the header row and a few sample values from uploaded
// spreadsheets. It does not load whole workbooks into domain types; the
// auto-mapper only needs column names.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptySheet        = errors.New("sheet has no header row")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnreadable        = errors.New("file could not be read")
	ErrSheetNotFound     = errors.New("sheet not found in workbook")
)

// DefaultSampleRows is used when Options.SampleRows is zero.
const DefaultSampleRows = 3

// Sheet is the column layout of one uploaded sheet.
type Sheet struct {
	File    string     `json:"file,omitempty"` // base name of the uploaded file
	Name    string     `json:"name"`           // worksheet name; File for CSV
	Headers []string   `json:"headers"`
	Samples [][]string `json:"samples"` // Samples[i] belongs to Headers[i]
	Rows    int        `json:"rows"`    // data rows after the header
}

// Options controls reading.
type Options struct {
	SampleRows int    // non-empty sample values kept per column
	Sheet      string // XLSX sheet name; first sheet when empty
	MaxBytes   int64  // 0 means unlimited
}

// Format identifies a supported input format by file name.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file name to its format.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Read picks a reader from the file name's extension.
func Read(name string, r io.Reader, opts Options) (*Sheet, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var s *Sheet
	switch format {
	case FormatXLSX:
		s, err = ReadXLSX(r, opts)
	default:
		s, err = ReadCSV(r, opts)
	}
	if err != nil {
		return nil, err
	}
	s.File = filepath.Base(name)
	if s.Name == "" {
		s.Name = s.File
	}
	return s, nil
}

// fromRows builds a Sheet from raw rows. The first row holding any
// non-blank cell is the header.
func fromRows(rows [][]string, sampleRows int) (*Sheet, error) {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}

	start := -1
	for i, row := range rows {
		if !blankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptySheet
	}

	headers := headerNames(rows[start])
	s := &Sheet{
		Headers: headers,
		Samples: make([][]string, len(headers)),
	}

	for _, row := range rows[start+1:] {
		if blankRow(row) {
			continue
		}
		s.Rows++
		for i := 0; i < len(headers) && i < len(row); i++ {
			v := strings.TrimSpace(row[i])
			if v == "" || len(s.Samples[i]) >= sampleRows {
				continue
			}
			s.Samples[i] = append(s.Samples[i], v)
		}
	}

	return s, nil
}

// headerNames cleans header cells. Trailing blank cells are dropped and
// inner blanks become "Column N".
func headerNames(row []string) []string {
	end := len(row)
	for end > 0 && CleanHeader(row[end-1]) == "" {
		end--
	}

	out := make([]string, end)
	for i := 0; i < end; i++ {
		h := CleanHeader(row[i])
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = h
	}
	return out
}

// CleanHeader trims a header cell and strips spreadsheet artifacts: a
// formula prefix (="Name" or =Name) and one pair of surrounding quotes.
// The result is in Unicode NFC so headers typed on different systems
// compare equal.
func CleanHeader(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(unquote(s))
}

// unquote removes one pair of matching quotes that wrap the whole cell.
func unquote(s string) string {
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
