package report

import (
	"html/template"
	"io"
	"strings"

	"github.com/joescharf/cro/internal/models"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"score":  FormatScore,
	"counts": CountsString,
	"lower":  func(r models.Result) string { return strings.ToLower(strings.ReplaceAll(string(r), "/", "")) },
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>CRO Landing Page Report</title>
<style>
body { font-family: Arial, sans-serif; padding: 16px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 6px; text-align: left; vertical-align: top; }
.pass { color: #1a7f37; } .warn { color: #9a6700; } .fail { color: #cf222e; } .review { color: #0969da; } .na { color: #6e7781; }
</style>
</head>
<body>
<h1>CRO Landing Page Report</h1>
<ul>
<li>URL: {{.Summary.URL}}</li>
<li>Score (0-1): {{score .Summary.Score}}</li>
<li>Counts: {{counts .Summary.Counts}}</li>
</ul>
<h2>Checks</h2>
<table>
<thead><tr><th>Category</th><th>Tip</th><th>Result</th><th>Evidence</th><th>Type</th><th>Priority</th><th>Difficulty</th><th>Explanation</th></tr></thead>
<tbody>
{{- range .Checks}}
<tr><td>{{.Category}}</td><td>{{.Tip}}</td><td class="{{lower .Result}}"><b>{{.Result}}</b></td><td>{{.Evidence}}</td><td>{{.CheckType}}</td><td>{{.Priority}}</td><td>{{.Difficulty}}</td><td>{{.Explanation}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

// HTML writes a standalone HTML page. All row values are escaped.
func HTML(w io.Writer, run *models.Run) error {
	return htmlTemplate.Execute(w, run)
}
