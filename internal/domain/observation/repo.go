package observation

import "context"

type Repository interface {
	Create(ctx context.Context, o *Observation) error
	GetByFHIRID(ctx context.Context, fhirID string) (*Observation, error)
	Update(ctx context.Context, o *Observation) error
	Delete(ctx context.Context, fhirID string) error
}
