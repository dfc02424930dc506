package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinrec/clinrec/internal/bundle"
)

// Handler adapts the patient service to the bundle dispatcher's
// per-type operation contract.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(ctx context.Context, payload map[string]interface{}) (*bundle.ResourceInfo, error) {
	p, ferr := FromPayload(payload)
	if ferr != nil {
		return nil, bundle.NewValidationError("%s", ferr.Error())
	}
	if err := h.svc.Create(ctx, p); err != nil {
		return nil, err
	}
	return info(p), nil
}

func (h *Handler) Update(ctx context.Context, id string, payload map[string]interface{}) (*bundle.ResourceInfo, error) {
	p, ferr := FromPayload(payload)
	if ferr != nil {
		return nil, bundle.NewValidationError("%s", ferr.Error())
	}
	p.FHIRID = id
	if err := h.svc.Update(ctx, p); err != nil {
		return nil, mapStorageErr(err)
	}
	return info(p), nil
}

func (h *Handler) Delete(ctx context.Context, id string) error {
	if err := h.svc.Delete(ctx, id); err != nil {
		return mapStorageErr(err)
	}
	return nil
}

func info(p *Patient) *bundle.ResourceInfo {
	return &bundle.ResourceInfo{
		Location:     bundle.FormatLocator("Patient", p.FHIRID),
		ETag:         fmt.Sprintf(`W/"%d"`, p.VersionID),
		LastModified: p.UpdatedAt,
	}
}

func mapStorageErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return bundle.ErrNotFound
	}
	return err
}
