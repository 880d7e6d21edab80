package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/colmap/internal/sheet"
)

func (a *App) newSheetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <file>",
		Short: "List the worksheets of a workbook",
		Long:  `Sheets lists worksheet names in tab order, for use with --sheet. A CSV file has one sheet named after the file.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := listSheets(args[0])
			if err != nil {
				return err
			}

			format, err := a.outputFormat()
			if err != nil {
				return err
			}
			return render(a.out, format, names, func(w io.Writer) error {
				rows := make([][]string, len(names))
				for i, n := range names {
					rows[i] = []string{fmt.Sprint(i + 1), n}
				}
				return writeTable(w, []string{"#", "Sheet"}, rows)
			})
		},
	}
}

func listSheets(path string) ([]string, error) {
	format, err := sheet.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == sheet.FormatCSV {
		return []string{filepath.Base(path)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sheet.SheetNames(f)
}
