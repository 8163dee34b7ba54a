// Package renderer renders curation results as markdown.
package renderer

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var templates embed.FS

// Discrepancies is a discrepancy report of one identifier: the key columns
// of the conflicting rows followed by the value reported by every endpoint.
type Discrepancies struct {
	Block      string
	Identifier string
	Columns    []string
	Rows       [][]string
}

// ParseDiscrepancies reads a pipe separated discrepancy report.
func ParseDiscrepancies(block, identifier, report string) (*Discrepancies, error) {
	r := csv.NewReader(strings.NewReader(report))
	r.Comma = '|'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("discrepancy report of %s for %s: %w", block, identifier, err)
	}
	d := &Discrepancies{Block: block, Identifier: identifier}
	if len(records) > 0 {
		d.Columns, d.Rows = records[0], records[1:]
	}
	return d, nil
}

// RenderDiscrepancies renders a discrepancy report to a markdown string.
func RenderDiscrepancies(d *Discrepancies) string {
	partials := map[string]string{
		"discrepancies_table": "discrepancies_table.md",
	}
	return renderTemplate("discrepancies", "discrepancies.md", partials, d)
}

var funcs = template.FuncMap{
	// cell escapes a value for a markdown table cell.
	"cell": func(s string) string {
		return strings.ReplaceAll(s, "|", `\|`)
	},
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
