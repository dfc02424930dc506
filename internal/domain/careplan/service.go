package careplan

import (
	"context"
	"strings"

	"github.com/clinrec/clinrec/internal/bundle"
)

var validStatuses = map[string]bool{
	"draft": true, "active": true, "on-hold": true,
	"completed": true, "revoked": true, "entered-in-error": true,
}

var validIntents = map[string]bool{
	"proposal": true, "plan": true, "order": true, "option": true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(cp *CarePlan) error {
	if cp.SubjectRef == "" {
		return bundle.NewValidationError("subject.reference is required")
	}
	// A placeholder that survived resolution means the bundle referenced
	// an entry that does not exist; it must not be persisted.
	if strings.HasPrefix(cp.SubjectRef, "urn:uuid:") {
		return bundle.NewValidationError("subject.reference is an unresolved placeholder: %s", cp.SubjectRef)
	}
	if cp.Intent == "" {
		return bundle.NewValidationError("intent is required")
	}
	if !validIntents[cp.Intent] {
		return bundle.NewValidationError("invalid intent: %s", cp.Intent)
	}
	if cp.Status == "" {
		cp.Status = "draft"
	}
	if !validStatuses[cp.Status] {
		return bundle.NewValidationError("invalid status: %s", cp.Status)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, cp *CarePlan) error {
	if err := s.validate(cp); err != nil {
		return err
	}
	return s.repo.Create(ctx, cp)
}

func (s *Service) Get(ctx context.Context, fhirID string) (*CarePlan, error) {
	return s.repo.GetByFHIRID(ctx, fhirID)
}

func (s *Service) Update(ctx context.Context, cp *CarePlan) error {
	if err := s.validate(cp); err != nil {
		return err
	}
	return s.repo.Update(ctx, cp)
}

func (s *Service) Delete(ctx context.Context, fhirID string) error {
	return s.repo.Delete(ctx, fhirID)
}
