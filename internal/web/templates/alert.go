// Package templates holds the HTML fragments returned to HTMX clients.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error alert with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="alert alert-error" role="alert" data-code="`+
			templ.EscapeString(code)+`"><p class="alert-message">`+
			templ.EscapeString(message)+`</p>`)
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := io.WriteString(w, `<p class="alert-action">`+templ.EscapeString(action)+`</p>`); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `<p class="alert-code">Code: `+templ.EscapeString(code)+`</p></div>`)
		return err
	})
}

// ImportSummary renders the counts of a reviewed import for HTMX clients.
func ImportSummary(items, creates, updates, invalid, needsPricing int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="import-summary"><ul>`+
			row("Items", items)+
			row("New entries", creates)+
			row("Updated entries", updates)+
			row("Skipped rows", invalid)+
			row("Awaiting price", needsPricing)+
			`</ul></div>`)
		return err
	})
}

func row(label string, n int) string {
	return `<li><span>` + templ.EscapeString(label) + `</span> <strong>` + strconv.Itoa(n) + `</strong></li>`
}
