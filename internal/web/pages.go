package web

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
)

// dashboardData feeds the dashboard page.
type dashboardData struct {
	Limiter core.ImportLimiterStatus
	Runs    []core.ImportRun
	RunsErr string
}

// layout wraps body in the page chrome.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title></head><body><main>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// importForm posts a file to the import endpoint.
func importForm() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section id="import">`+
			`<h2>Import a file</h2>`+
			`<form method="post" action="/api/import" enctype="multipart/form-data">`+
			`<input type="file" name="file" accept=".csv,.xls,.xlsx" required>`+
			`<select name="entity"><option value="">Detect automatically</option><option value="restaurant">Restaurant</option></select>`+
			`<label><input type="checkbox" name="dry_run" value="true"> Inspect only</label>`+
			`<button type="submit">Upload</button>`+
			`</form>`+
			`<p><a href="/api/template?format=csv">CSV template</a> | <a href="/api/template?format=xlsx">XLSX template</a></p>`+
			`</section>`)
		return err
	})
}

// dashboardPage lists recent runs under the import form.
func dashboardPage(d dashboardData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>Restaurant import</h1><p id="slots">Imports running: %d of %d</p>`,
			d.Limiter.Active, d.Limiter.MaxConcurrent); err != nil {
			return err
		}
		if err := importForm().Render(ctx, w); err != nil {
			return err
		}
		return runsTable(d).Render(ctx, w)
	})
	return layout("Restaurant import", body)
}

func runsTable(d dashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section id="runs"><h2>Recent imports</h2>`); err != nil {
			return err
		}
		switch {
		case d.RunsErr != "":
			if _, err := fmt.Fprintf(w, `<p class="error">%s</p>`, templ.EscapeString(d.RunsErr)); err != nil {
				return err
			}
		case len(d.Runs) == 0:
			if _, err := io.WriteString(w, `<p>No imports yet.</p>`); err != nil {
				return err
			}
		default:
			if _, err := io.WriteString(w, `<table><thead><tr><th>Started</th><th>File</th><th>Entity</th><th>Total</th><th>Inserted</th><th>Skipped</th><th>Failed</th><th>Error</th></tr></thead><tbody>`); err != nil {
				return err
			}
			for _, run := range d.Runs {
				cells := []string{
					run.StartedAt.Format(time.DateTime),
					run.FileName,
					string(run.Entity),
					strconv.Itoa(run.Total),
					strconv.Itoa(run.Successful),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Failed),
					run.FatalError,
				}
				if _, err := io.WriteString(w, "<tr>"); err != nil {
					return err
				}
				for _, c := range cells {
					if _, err := fmt.Fprintf(w, "<td>%s</td>", templ.EscapeString(c)); err != nil {
						return err
					}
				}
				if _, err := io.WriteString(w, "</tr>"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// errorAlert is the HTMX fragment for a failed request.
func errorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert alert-error" role="alert"><p>%s</p><p>%s</p><small>Code: %s</small></div>`,
			templ.EscapeString(msg.Message),
			templ.EscapeString(msg.Action),
			templ.EscapeString(msg.Code))
		return err
	})
}

// resultSummary is the HTMX fragment for a finished import.
func resultSummary(res *core.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div class="result"><p>%s: %s, %d rows, %d validation findings</p>`,
			templ.EscapeString(res.FileName),
			templ.EscapeString(string(res.Entity)),
			res.Rows,
			res.Validation.Count()); err != nil {
			return err
		}
		if res.Load != nil {
			if _, err := fmt.Fprintf(w, `<p>Inserted %d, skipped %d, failed %d</p>`,
				res.Load.Successful, res.Load.Skipped, res.Load.Failed); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
