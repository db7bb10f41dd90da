package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SmartForm247/EasyForm2/internal/registration/projector"
)

// documentTemplate lays the projected surface out as a printable document:
// the company header followed by every filled slot grouped in a two-column
// table, in projection order.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { size: A4; margin: 18mm; }
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 11px; color: #111; }
  h1 { font-size: 18px; margin-bottom: 2px; }
  h2 { font-size: 13px; margin: 14px 0 4px; border-bottom: 1px solid #999; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 2px 6px; vertical-align: top; border-bottom: 1px solid #eee; }
  td.slot { width: 38%; color: #555; }
  .advisory { margin-top: 10px; padding: 6px; border: 1px solid #c60; color: #c60; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Subtitle}}</p>
<table>
{{- range .Rows}}
  <tr><td class="slot">{{.Slot}}</td><td>{{.Text}}</td></tr>
{{- end}}
</table>
{{- if .Advisory}}
<div class="advisory">{{.Advisory}}</div>
{{- end}}
</body>
</html>`

var parsedTemplate = template.Must(template.New("document").Parse(documentTemplate))

type templateRow struct {
	Slot string
	Text string
}

type templateData struct {
	Title    string
	Subtitle string
	Rows     []templateRow
	Advisory string
}

// renderHTML renders the projection into the printable HTML document.
func renderHTML(title, subtitle string, projection *projector.Projection) (string, error) {
	data := templateData{
		Title:    title,
		Subtitle: subtitle,
		Advisory: projection.ShareAdvisory,
	}
	for _, slot := range projection.Surface.Slots() {
		text := projection.Surface.Get(slot)
		if text == "" {
			continue
		}
		data.Rows = append(data.Rows, templateRow{Slot: slot, Text: text})
	}

	var buf bytes.Buffer
	if err := parsedTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute document template: %w", err)
	}
	return buf.String(), nil
}
