package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/colmap/internal/catalog"
)

func (a *App) newCatalogsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs [key]",
		Short: "List field catalogs or show one catalog's fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.outputFormat()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				c, err := catalog.Lookup(args[0])
				if err != nil {
					return err
				}
				return render(a.out, format, c, func(w io.Writer) error {
					return writeFields(w, c)
				})
			}

			all := catalog.All()
			return render(a.out, format, all, func(w io.Writer) error {
				rows := make([][]string, len(all))
				for i, c := range all {
					rows[i] = []string{
						c.Key,
						c.Label,
						strconv.Itoa(len(c.Fields)),
						strconv.Itoa(len(c.RequiredKeys())),
					}
				}
				return writeTable(w, []string{"Key", "Label", "Fields", "Required"}, rows)
			})
		},
	}
}

func writeFields(w io.Writer, c catalog.Catalog) error {
	rows := make([][]string, len(c.Fields))
	for i, f := range c.Fields {
		req := ""
		if f.Required {
			req = "yes"
		}
		rows[i] = []string{f.Key, f.Label, req}
	}
	return writeTable(w, []string{"Key", "Label", "Required"}, rows)
}
