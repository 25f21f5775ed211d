package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	GetProjectByName(ctx context.Context, name string) (*Project, error)
	ListProjects(ctx context.Context, filter ListFilter) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ListFilter struct {
	ActiveOnly bool
}

type CreateParams struct {
	Name   string
	Rate   decimal.Decimal
	Active bool
}

type UpdateParams struct {
	Name   string
	Rate   decimal.Decimal
	Active *bool
}

// ListActive returns active projects ordered by name, then id. The order is
// stable so a conversation can snapshot it.
func (s *Service) ListActive(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx, ListFilter{ActiveOnly: true})
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx, ListFilter{})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Project, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrEmptyName
	}

	if !params.Rate.IsPositive() {
		return nil, ErrInvalidRate
	}

	if err := s.ensureUniqueName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	p := &Project{
		Name:   name,
		Rate:   params.Rate,
		Active: params.Active,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Project, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrEmptyName
	}

	if !params.Rate.IsPositive() {
		return nil, ErrInvalidRate
	}

	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}

	p.Name = name
	p.Rate = params.Rate

	if params.Active != nil {
		p.Active = *params.Active
	}

	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) ToggleActive(ctx context.Context, id uuid.UUID) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Active = !p.Active

	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetProject(ctx, id); err != nil {
		return err
	}

	return s.repo.DeleteProject(ctx, id)
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Created    []*Project
	Duplicates []CreateParams
}

// Import creates every project whose name is not already taken. Names that
// collide, including within the batch itself, are reported instead of failing
// the whole import.
func (s *Service) Import(ctx context.Context, params []CreateParams) (*ImportResult, error) {
	result := &ImportResult{}
	seen := make(map[string]struct{}, len(params))

	for _, p := range params {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if _, dup := seen[key]; dup {
			result.Duplicates = append(result.Duplicates, p)
			continue
		}

		seen[key] = struct{}{}

		created, err := s.Create(ctx, p)
		if errors.Is(err, ErrDuplicateName) {
			result.Duplicates = append(result.Duplicates, p)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("importing project %q: %w", p.Name, err)
		}

		result.Created = append(result.Created, created)
	}

	return result, nil
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.repo.GetProjectByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("checking project name: %w", err)
	}

	if existing.ID != self {
		return ErrDuplicateName
	}

	return nil
}
