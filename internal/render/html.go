package render

import (
	"html/template"
	"io"

	"fxconverter/internal/converter"
)

var page = template.Must(template.New("converter").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Currency Converter</title></head>
<body>
<div class="currency-converter">
<h2>Convert Currency</h2>
{{- if .Error}}
<h2 class="error">{{.Error}}</h2>
{{- end}}
<form method="post" action="/">
<div>
<label for="amount">Amount:</label>
<input id="amount" name="amount" type="number" step="any" value="{{.Amount}}" required>
</div>
<div>
<label for="from">From:</label>
<select id="from" name="from" required>
{{- range .Options}}
<option value="{{.}}"{{if eq . $.From}} selected{{end}}>{{.}}</option>
{{- end}}
</select>
</div>
<div>
<label for="to">To:</label>
<select id="to" name="to" required>
{{- range .Options}}
<option value="{{.}}"{{if eq . $.To}} selected{{end}}>{{.}}</option>
{{- end}}
</select>
</div>
<button type="submit">Convert</button>
</form>
<h2 class="result">{{.ResultLine}}</h2>
</div>
</body>
</html>
`))

// HTML writes the converter form as a full page.
func HTML(w io.Writer, s converter.State) error {
	return page.Execute(w, NewView(s))
}
