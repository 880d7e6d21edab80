package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads comma-separated input. Ragged rows and stray quotes are
// tolerated; exports from billing systems rarely follow RFC 4180.
func ReadCSV(r io.Reader, opts Options) (*Sheet, error) {
	cr := csv.NewReader(wrapDelimited(r, opts.MaxBytes))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrFileTooLarge) {
				return nil, ErrFileTooLarge
			}
			return nil, fmt.Errorf("%w: parse csv: %v", ErrUnreadable, err)
		}
		rows = append(rows, rec)
	}

	return fromRows(rows, opts.SampleRows)
}
