package patient

import (
	"context"

	"github.com/clinrec/clinrec/internal/bundle"
)

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true, "unknown": true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(p *Patient) error {
	if p.Family == nil && p.Given == nil {
		return bundle.NewValidationError("name is required")
	}
	if p.Gender != nil && !validGenders[*p.Gender] {
		return bundle.NewValidationError("invalid gender: %s", *p.Gender)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, fhirID string) (*Patient, error) {
	return s.repo.GetByFHIRID(ctx, fhirID)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, fhirID string) error {
	return s.repo.Delete(ctx, fhirID)
}
