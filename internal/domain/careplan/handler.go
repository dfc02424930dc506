package careplan

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
	cp, ferr := FromPayload(payload)
	if ferr != nil {
		return nil, bundle.NewValidationError("%s", ferr.Error())
	}
	if err := h.svc.Create(ctx, cp); err != nil {
		return nil, err
	}
	return info(cp), nil
}

func (h *Handler) Update(ctx context.Context, id string, payload map[string]interface{}) (*bundle.ResourceInfo, error) {
	cp, ferr := FromPayload(payload)
	if ferr != nil {
		return nil, bundle.NewValidationError("%s", ferr.Error())
	}
	cp.FHIRID = id
	if err := h.svc.Update(ctx, cp); err != nil {
		return nil, mapStorageErr(err)
	}
	return info(cp), nil
}

func (h *Handler) Delete(ctx context.Context, id string) error {
	if err := h.svc.Delete(ctx, id); err != nil {
		return mapStorageErr(err)
	}
	return nil
}

func info(cp *CarePlan) *bundle.ResourceInfo {
	return &bundle.ResourceInfo{
		Location:     bundle.FormatLocator("CarePlan", cp.FHIRID),
		ETag:         fmt.Sprintf(`W/"%d"`, cp.VersionID),
		LastModified: cp.UpdatedAt,
	}
}

func mapStorageErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return bundle.ErrNotFound
	}
	return err
}
