package sheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads one worksheet of an Excel workbook. Options.Sheet picks
// the sheet by name; the first sheet in the workbook is used otherwise.
func ReadXLSX(r io.Reader, opts Options) (*Sheet, error) {
	f, err := excelize.OpenReader(newLimitReader(r, opts.MaxBytes))
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadable, err)
	}
	defer f.Close()

	name := opts.Sheet
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptySheet
		}
		name = sheets[0]
	} else if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadable, name, err)
	}

	s, err := fromRows(rows, opts.SampleRows)
	if err != nil {
		return nil, err
	}
	s.Name = name
	return s, nil
}

// SheetNames lists the worksheets of a workbook in tab order.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadable, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
