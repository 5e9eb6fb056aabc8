// Package templates holds the HTML components served by the web package.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/regexcol/internal/core"
)

// htmxSrc is the pinned HTMX build the index page loads.
const htmxSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

const pageStyle = `
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
label { display: block; margin-top: .75rem; font-weight: 600; }
input[type=text], select { width: 100%; padding: .4rem; }
button { margin-top: 1rem; padding: .5rem 1rem; }
pre { background: #f3f4f6; padding: 1rem; overflow-x: auto; }
.alert { border: 1px solid #f87171; background: #fef2f2; padding: .75rem 1rem; margin-top: 1rem; }
.notice { border: 1px solid #fbbf24; background: #fffbeb; padding: .75rem 1rem; margin-top: 1rem; }
.stats { color: #4b5563; }
`

// writer collects the first write error so components read top to bottom.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) rawf(format string, args ...any) {
	w.raw(fmt.Sprintf(format, args...))
}

// Index renders the upload page.
func Index(presets []core.Preset, maxFileSize string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Regex column rewriter</title>`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		// Swap error fragments into #result too.
		w.raw(`<meta name="htmx-config" content='{"responseHandling":[{"code":"204","swap":false},{"code":"...","swap":true}]}'>`)
		w.rawf(`<script src="%s"></script>`, htmxSrc)
		w.rawf(`<style>%s</style></head><body>`, pageStyle)
		w.raw(`<h1>Regex column rewriter</h1>`)
		w.raw(`<p>Upload a CSV or Excel file, name a column and a regular expression. Every cell of that column is rewritten and the table comes back as CSV.</p>`)

		w.raw(`<form id="transform-form" hx-post="/api/transform" hx-encoding="multipart/form-data" hx-target="#result" hx-swap="innerHTML">`)
		w.raw(`<label for="file">File (csv, xlsx, xls; max `)
		w.text(maxFileSize)
		w.raw(`)</label><input id="file" type="file" name="file" accept=".csv,.xlsx,.xls" required>`)
		w.raw(`<label for="column">Column</label><input id="column" type="text" name="column" placeholder="e.g. Full Name" required>`)
		w.raw(`<label for="pattern">Pattern</label><input id="pattern" type="text" name="pattern" placeholder="e.g. (\w+)@example\.com">`)
		w.raw(`<label for="description">Or describe it</label><select id="description" name="description"><option value="">(none)</option>`)
		for _, p := range presets {
			w.raw(`<option value="`)
			w.text(p.Name)
			w.raw(`">`)
			w.text(p.Name)
			w.raw(` (`)
			w.text(p.Pattern)
			w.raw(`)</option>`)
		}
		w.raw(`</select>`)
		w.raw(`<label for="replacement">Replacement</label><input id="replacement" type="text" name="replacement" placeholder="e.g. $1 or \1">`)
		w.raw(`<button type="submit">Rewrite</button> `)
		w.raw(`<button type="submit" formaction="/api/transform?download=1" formmethod="post" formenctype="multipart/form-data" hx-disable>Download CSV</button>`)
		w.raw(`</form><div id="result"></div></body></html>`)
		return w.err
	})
}

// TransformResult is the HTMX partial shown after a successful rewrite.
func TransformResult(resp *core.TransformResponse) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<section id="transform-result"><p class="stats">Column <strong>`)
		w.text(resp.Column)
		w.rawf(`</strong>: %d rows, %d cells changed.`, resp.Rows, resp.Changed)
		if resp.Preset != "" {
			w.raw(` Pattern from preset <code>`)
			w.text(resp.Preset)
			w.raw(`</code>.`)
		}
		w.raw(`</p>`)
		if resp.NoMatches {
			w.raw(`<div class="notice" role="status">No matches found for the pattern in the specified column.</div>`)
		}
		w.raw(`<pre>`)
		w.text(string(resp.CSV))
		w.raw(`</pre></section>`)
		return w.err
	})
}

// ErrorAlert is the HTMX partial for a failed request. available lists the
// file's columns when the requested one was not found.
func ErrorAlert(message, action, code, detail string, available []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert" role="alert"><strong>`)
		w.text(message)
		w.raw(`</strong>`)
		if code != "" {
			w.raw(` <small>(Code: `)
			w.text(code)
			w.raw(`)</small>`)
		}
		if detail != "" && detail != message {
			w.raw(`<p>`)
			w.text(detail)
			w.raw(`</p>`)
		}
		if len(available) > 0 {
			w.raw(`<p>Available columns: `)
			w.text(strings.Join(available, ", "))
			w.raw(`</p>`)
		}
		if action != "" {
			w.raw(`<p>`)
			w.text(action)
			w.raw(`</p>`)
		}
		w.raw(`</div>`)
		return w.err
	})
}
