// Package views renders the HTML pages of the review UI as templ
// components.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const styles = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;width:100%}th,td{border-bottom:1px solid #e5e7eb;padding:.4rem .6rem;text-align:left;vertical-align:top}
.req{color:#b91c1c}.muted{color:#6b7280}.ok{color:#047857}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:.8rem;border-radius:.4rem;margin:1rem 0}
.warn{border-color:#fcd34d;background:#fffbeb}code{background:#f3f4f6;padding:0 .2rem}`

// page wraps body in the shared HTML document.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		p.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		p.raw("<title>")
		p.text(title)
		p.raw(" · colmap</title><style>" + styles + "</style></head><body>")
		if p.err != nil {
			return p.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		p.raw("</body></html>")
		return p.err
	})
}

// ErrorAlert renders an error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<div class="alert" role="alert"><strong>`)
		p.text(message)
		p.raw("</strong>")
		if action != "" {
			p.raw("<p>")
			p.text(action)
			p.raw("</p>")
		}
		p.raw(`<p class="muted">Error code: <code>`)
		p.text(code)
		p.raw("</code></p></div>")
		return p.err
	})
}

// ErrorPage is ErrorAlert as a full document.
func ErrorPage(message, action, code string) templ.Component {
	return page("Error", ErrorAlert(message, action, code))
}

// printer writes HTML and remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *printer) textf(format string, args ...any) {
	p.text(fmt.Sprintf(format, args...))
}
