package observation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinrec/clinrec/internal/bundle"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(ctx context.Context, payload map[string]interface{}) (*bundle.ResourceInfo, error) {
	o, ferr := FromPayload(payload)
	if ferr != nil {
		return nil, bundle.NewValidationError("%s", ferr.Error())
	}
	if err := h.svc.Create(ctx, o); err != nil {
		return nil, err
	}
	return info(o), nil
}

func (h *Handler) Update(ctx context.Context, id string, payload map[string]interface{}) (*bundle.ResourceInfo, error) {
	o, ferr := FromPayload(payload)
	if ferr != nil {
		return nil, bundle.NewValidationError("%s", ferr.Error())
	}
	o.FHIRID = id
	if err := h.svc.Update(ctx, o); err != nil {
		return nil, mapStorageErr(err)
	}
	return info(o), nil
}

func (h *Handler) Delete(ctx context.Context, id string) error {
	if err := h.svc.Delete(ctx, id); err != nil {
		return mapStorageErr(err)
	}
	return nil
}

func info(o *Observation) *bundle.ResourceInfo {
	return &bundle.ResourceInfo{
		Location:     bundle.FormatLocator("Observation", o.FHIRID),
		ETag:         fmt.Sprintf(`W/"%d"`, o.VersionID),
		LastModified: o.UpdatedAt,
	}
}

func mapStorageErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return bundle.ErrNotFound
	}
	return err
}
