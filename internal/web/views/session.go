package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/colmap/internal/mapping"
)

// SessionPage shows a mapping session for review: every catalog field with
// its column and sample values, the validation report, and the columns
// left over.
func SessionPage(s *mapping.Session) templ.Component {
	return page(s.FileName, sessionBody(s))
}

func sessionBody(s *mapping.Session) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}

		samples := make(map[string][]string, len(s.Columns))
		for i, col := range s.Columns {
			if i < len(s.Samples) {
				if _, seen := samples[col]; !seen {
					samples[col] = s.Samples[i]
				}
			}
		}

		p.raw("<h1>")
		p.text(s.FileName)
		if s.SheetName != "" {
			p.raw(` <span class="muted">`)
			p.text(s.SheetName)
			p.raw("</span>")
		}
		p.raw(`</h1><p class="muted">Catalog <code>`)
		p.text(s.CatalogKey)
		p.raw("</code> · session <code>")
		p.text(s.ID)
		p.raw("</code></p>")

		if p.err != nil {
			return p.err
		}
		if err := reportSection(s.Report).Render(ctx, w); err != nil {
			return err
		}

		p.raw("<table><thead><tr><th>Field</th><th>Column</th><th>Samples</th></tr></thead><tbody>")
		for _, f := range s.Fields {
			col := s.Mapping[f.Key]
			p.raw("<tr><td>")
			p.text(f.Label)
			if f.Required {
				p.raw(` <span class="req" title="required">*</span>`)
			}
			p.raw(`<br><code class="muted">`)
			p.text(f.Key)
			p.raw("</code></td><td>")
			switch {
			case col == "":
				p.raw(`<span class="muted">not mapped</span>`)
			default:
				p.text(col)
				if _, pinned := s.Overrides[f.Key]; pinned {
					p.raw(` <span class="muted">(set by you)</span>`)
				}
			}
			p.raw("</td><td>")
			p.text(strings.Join(samples[col], ", "))
			p.raw("</td></tr>")
		}
		p.raw("</tbody></table>")

		if spare := unusedColumns(s); len(spare) > 0 {
			p.raw(`<h2>Unused columns</h2><p class="muted">`)
			p.text(strings.Join(spare, ", "))
			p.raw("</p>")
		}
		return p.err
	})
}

func reportSection(r mapping.Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		if r.OK() && len(r.Warnings) == 0 {
			p.raw(`<p class="ok">All required fields are mapped.</p>`)
			return p.err
		}
		if len(r.Errors) > 0 {
			p.raw(`<div class="alert"><strong>`)
			p.textf("%d problem(s) to fix", len(r.Errors))
			p.raw("</strong><ul>")
			for _, issue := range r.Errors {
				p.raw("<li>")
				p.text(issue.Message)
				p.raw("</li>")
			}
			p.raw("</ul></div>")
		}
		if len(r.Warnings) > 0 {
			p.raw(`<div class="alert warn"><ul>`)
			for _, issue := range r.Warnings {
				p.raw("<li>")
				p.text(issue.Message)
				p.raw("</li>")
			}
			p.raw("</ul></div>")
		}
		return p.err
	})
}

func unusedColumns(s *mapping.Session) []string {
	used := make(map[string]bool, len(s.Mapping))
	for _, col := range s.Mapping {
		used[col] = true
	}
	var out []string
	for _, col := range s.Columns {
		if !used[col] {
			out = append(out, col)
		}
	}
	return out
}
