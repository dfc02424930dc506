package patient

import "context"

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByFHIRID(ctx context.Context, fhirID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, fhirID string) error
}
