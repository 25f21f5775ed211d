package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/billbot/internal/catalog"
)

type projectResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Rate      decimal.Decimal `json:"rate"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

type importResponse struct {
	Created    []projectResponse `json:"created"`
	Duplicates []string          `json:"duplicates"`
}

func toResponse(p *catalog.Project) projectResponse {
	return projectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Rate:      p.Rate,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toResponseList(ps []*catalog.Project) []projectResponse {
	resp := make([]projectResponse, len(ps))
	for i, p := range ps {
		resp[i] = toResponse(p)
	}

	return resp
}

func toImportResponse(res *catalog.ImportResult) importResponse {
	resp := importResponse{
		Created:    toResponseList(res.Created),
		Duplicates: make([]string, len(res.Duplicates)),
	}

	for i, d := range res.Duplicates {
		resp.Duplicates[i] = d.Name
	}

	return resp
}
