package careplan

import "context"

type Repository interface {
	Create(ctx context.Context, cp *CarePlan) error
	GetByFHIRID(ctx context.Context, fhirID string) (*CarePlan, error)
	Update(ctx context.Context, cp *CarePlan) error
	Delete(ctx context.Context, fhirID string) error
}
