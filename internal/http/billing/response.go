package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
)

type recordResponse struct {
	ID         uuid.UUID       `json:"id"`
	ClientName string          `json:"client_name"`
	Days       decimal.Decimal `json:"days"`
	Rate       decimal.Decimal `json:"rate"`
	Total      string          `json:"total"`
	Month      string          `json:"month"`
	Year       string          `json:"year"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toResponse(r *billing.Record) recordResponse {
	return recordResponse{
		ID:         r.ID,
		ClientName: r.ClientName,
		Days:       r.Days,
		Rate:       r.Rate,
		Total:      r.Total().StringFixed(2),
		Month:      r.Month,
		Year:       r.Year,
		CreatedAt:  r.CreatedAt,
	}
}

func toResponseList(rs []*billing.Record) []recordResponse {
	resp := make([]recordResponse, len(rs))
	for i, r := range rs {
		resp[i] = toResponse(r)
	}

	return resp
}
