package billing

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=billing
type Repository interface {
	ListRecords(ctx context.Context, filter ListFilter) ([]*Record, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ListFilter struct {
	Month      *string
	Year       *string
	ClientName *string
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	return s.repo.ListRecords(ctx, filter)
}

func (s *Service) ListByPeriod(ctx context.Context, month, year string) ([]*Record, error) {
	return s.repo.ListRecords(ctx, ListFilter{Month: &month, Year: &year})
}

func (s *Service) ListByClient(ctx context.Context, clientName string) ([]*Record, error) {
	return s.repo.ListRecords(ctx, ListFilter{ClientName: &clientName})
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRecord(ctx, id)
}
