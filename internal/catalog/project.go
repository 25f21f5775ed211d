package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrDuplicateName = errors.New("a project with this name already exists")
	ErrInvalidRate   = errors.New("rate must be positive")
	ErrEmptyName     = errors.New("project name is required")
)

// Project is a billable engagement with its default daily rate.
type Project struct {
	ID        uuid.UUID
	Name      string
	Rate      decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}
