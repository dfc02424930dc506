package observation

import (
	"context"
	"strings"

	"github.com/clinrec/clinrec/internal/bundle"
)

var validStatuses = map[string]bool{
	"registered": true, "preliminary": true, "final": true, "amended": true,
	"corrected": true, "cancelled": true, "entered-in-error": true, "unknown": true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(o *Observation) error {
	if o.Status == "" {
		return bundle.NewValidationError("status is required")
	}
	if !validStatuses[o.Status] {
		return bundle.NewValidationError("invalid status: %s", o.Status)
	}
	if o.Code == "" {
		return bundle.NewValidationError("code.coding is required")
	}
	if o.SubjectRef == "" {
		return bundle.NewValidationError("subject.reference is required")
	}
	if strings.HasPrefix(o.SubjectRef, "urn:uuid:") {
		return bundle.NewValidationError("subject.reference is an unresolved placeholder: %s", o.SubjectRef)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, o *Observation) error {
	if err := s.validate(o); err != nil {
		return err
	}
	return s.repo.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, fhirID string) (*Observation, error) {
	return s.repo.GetByFHIRID(ctx, fhirID)
}

func (s *Service) Update(ctx context.Context, o *Observation) error {
	if err := s.validate(o); err != nil {
		return err
	}
	return s.repo.Update(ctx, o)
}

func (s *Service) Delete(ctx context.Context, fhirID string) error {
	return s.repo.Delete(ctx, fhirID)
}
