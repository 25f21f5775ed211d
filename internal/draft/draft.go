// Package draft renders the monthly billing authorization email and its chat preview.
package draft

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
)

// Draft is a ready-to-send authorization email.
type Draft struct {
	To       string
	Subject  string
	HTMLBody string
}

type row struct {
	Name  string
	Days  string
	Rate  string
	Total string
}

type view struct {
	Month      string
	Year       string
	Rows       []row
	GrandTotal string
}

var bodyTmpl = template.Must(template.New("body").Parse(`<p>Hello,</p>
<p>please find below the billing authorization request for <strong>{{.Month}} {{.Year}}</strong>.</p>
<table border="1" cellpadding="8" cellspacing="0" style="border-collapse: collapse; margin: 20px 0;">
<thead style="background-color: #f2f2f2;">
<tr><th style="text-align: left;">Project</th><th style="text-align: center;">Days</th><th style="text-align: right;">Rate</th><th style="text-align: right;">Total</th></tr>
</thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Name}}</td><td style="text-align: center;">{{.Days}}</td><td style="text-align: right;">&euro;{{.Rate}}</td><td style="text-align: right;">&euro;{{.Total}}</td></tr>
{{- end}}
<tr style="background-color: #f2f2f2; font-weight: bold;"><td colspan="3" style="text-align: right;">GRAND TOTAL</td><td style="text-align: right;">&euro;{{.GrandTotal}}</td></tr>
</tbody>
</table>
<p>Best regards</p>
`))

// Subject returns the email subject for a billing period.
func Subject(month, year string) string {
	return fmt.Sprintf("Billing authorization %s %s", month, year)
}

// Build renders the authorization email for the given period and lines.
func Build(month, year string, lines []billing.Line, recipient string) (Draft, error) {
	v := view{
		Month:      month,
		Year:       year,
		Rows:       make([]row, 0, len(lines)),
		GrandTotal: Money(billing.GrandTotal(lines)),
	}

	for _, l := range lines {
		v.Rows = append(v.Rows, row{
			Name:  l.ProjectName,
			Days:  Days(l.Days),
			Rate:  Money(l.Rate),
			Total: Money(l.Total()),
		})
	}

	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, v); err != nil {
		return Draft{}, fmt.Errorf("render email body: %w", err)
	}

	return Draft{
		To:       recipient,
		Subject:  Subject(month, year),
		HTMLBody: buf.String(),
	}, nil
}

// Preview is the plain-text summary shown in chat before confirmation.
func Preview(month, year string, lines []billing.Line) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summary %s %s:\n", month, year)

	for _, l := range lines {
		fmt.Fprintf(&b, "- %s: %s days x €%s = €%s\n", l.ProjectName, Days(l.Days), Money(l.Rate), Money(l.Total()))
	}

	fmt.Fprintf(&b, "Total: €%s\n", Money(billing.GrandTotal(lines)))
	b.WriteString("Confirm? 1 = send, 2 = cancel")

	return b.String()
}

// Money formats an amount with exactly two decimals, rounding half away from zero.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Days formats a day count without trailing zeros.
func Days(d decimal.Decimal) string {
	return d.String()
}
