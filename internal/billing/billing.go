package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("billing record not found")

// Line is one project's contribution to a monthly authorization while the
// conversation is still collecting data. It is never persisted on its own.
type Line struct {
	ProjectName string          `json:"project_name"`
	Rate        decimal.Decimal `json:"rate"`
	Days        decimal.Decimal `json:"days"`
}

// Total returns rate × days without rounding.
func (l Line) Total() decimal.Decimal {
	return l.Rate.Mul(l.Days)
}

// GrandTotal sums the exact totals of all lines.
func GrandTotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}

	return sum
}

// Record is a finalized billing authorization entry, one per Line.
type Record struct {
	ID         uuid.UUID
	ClientName string
	Days       decimal.Decimal
	Rate       decimal.Decimal
	Month      string
	Year       string
	CreatedAt  time.Time
}

// Total returns rate × days without rounding.
func (r Record) Total() decimal.Decimal {
	return r.Rate.Mul(r.Days)
}

// RecordsFromLines turns accumulated lines into records for the given period.
func RecordsFromLines(month, year string, lines []Line) []Record {
	records := make([]Record, len(lines))
	for i, l := range lines {
		records[i] = Record{
			ClientName: l.ProjectName,
			Days:       l.Days,
			Rate:       l.Rate,
			Month:      month,
			Year:       year,
		}
	}

	return records
}
