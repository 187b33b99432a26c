package notify

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
)

// Subject is the subject line of every inheritance notification.
const Subject = "You have received an inheritance"

var textBody = template.Must(template.New("text").Parse(`Dear {{.RecipientName}},

{{.OwnerName}} has left you {{.Amount}} ETH.

Transaction: {{.TransactionRef}}
{{- if .DocumentRef}}
Document: {{.DocumentName}} (IPFS {{.DocumentRef}})
{{- end}}
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<p>Dear {{.RecipientName}},</p>
<p>{{.OwnerName}} has left you <strong>{{.Amount}} ETH</strong>.</p>
<p>Transaction: <code>{{.TransactionRef}}</code></p>
{{- if .DocumentRef}}
<p>Document: <a href="https://gateway.pinata.cloud/ipfs/{{.DocumentRef}}">{{.DocumentName}}</a></p>
{{- end}}
`))

// Render returns the plain-text and HTML bodies for req.
func Render(req Request) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := textBody.Execute(&tb, req); err != nil {
		return "", "", err
	}
	if err := htmlBody.Execute(&hb, req); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}
