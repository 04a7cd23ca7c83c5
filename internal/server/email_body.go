package server

import (
	"fmt"
	"html/template"
	"strings"

	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
)

var invoiceEmailTemplate = template.Must(template.New("invoice_email").Parse(`<html>
<body style="font-family: sans-serif; color: #222;">
  <p>Hello{{if .ClientName}} {{.ClientName}}{{end}},</p>
  {{if .Message}}<p>{{.Message}}</p>{{end}}
  <p>Please find {{.Label}} <strong>{{.Number}}</strong> attached.</p>
  <table cellpadding="4">
    <tr><td>Issue date</td><td>{{.IssueDate}}</td></tr>
    {{if .DueDate}}<tr><td>Due date</td><td>{{.DueDate}}</td></tr>{{end}}
    <tr><td>Total</td><td><strong>{{.Total}} {{.Currency}}</strong></td></tr>
  </table>
  {{if .PaymentDetails}}<p>{{.PaymentDetails}}</p>{{end}}
  <p>Best regards,<br>{{.Company}}</p>
</body>
</html>`))

func invoiceEmailBody(bp profiledomain.BusinessProfile, inv invoicedomain.Invoice, message string) string {
	data := struct {
		ClientName     string
		Message        string
		Label          string
		Number         string
		IssueDate      string
		DueDate        string
		Total          string
		Currency       string
		PaymentDetails string
		Company        string
	}{
		ClientName:     strings.TrimSpace(inv.ClientName),
		Message:        strings.TrimSpace(message),
		Label:          strings.ToLower(documentLabel(inv.Kind)),
		Number:         inv.DocumentNumber,
		IssueDate:      inv.IssueDate.Format(dateOnlyLayout),
		Total:          inv.Total.StringFixed(2),
		Currency:       inv.Currency,
		PaymentDetails: strings.TrimSpace(bp.PaymentDetails),
		Company:        bp.CompanyName,
	}
	if inv.Kind == invoicedomain.KindInvoice {
		data.DueDate = inv.DueDate.Format(dateOnlyLayout)
	}

	var sb strings.Builder
	if err := invoiceEmailTemplate.Execute(&sb, data); err != nil {
		return fmt.Sprintf("<p>Please find %s %s attached.</p>", data.Label, data.Number)
	}
	return sb.String()
}
