package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinrec/clinrec/internal/bundle"
)

type mockRepo struct {
	byFHIRID map[string]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{byFHIRID: make(map[string]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	if p.FHIRID == "" {
		p.FHIRID = p.ID.String()
	}
	p.VersionID = 1
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.byFHIRID[p.FHIRID] = p
	return nil
}

func (m *mockRepo) GetByFHIRID(_ context.Context, fhirID string) (*Patient, error) {
	p, ok := m.byFHIRID[fhirID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	existing, ok := m.byFHIRID[p.FHIRID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.VersionID = existing.VersionID + 1
	p.UpdatedAt = time.Now()
	m.byFHIRID[p.FHIRID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, fhirID string) error {
	if _, ok := m.byFHIRID[fhirID]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byFHIRID, fhirID)
	return nil
}

func strptr(s string) *string { return &s }

func TestService_CreateValidates(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.Create(context.Background(), &Patient{})
	var verr *bundle.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for missing name, got %v", err)
	}

	err = svc.Create(context.Background(), &Patient{
		Family: strptr("Rivera"),
		Gender: strptr("robot"),
	})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for bad gender, got %v", err)
	}
}

func TestService_CreateAssignsIdentity(t *testing.T) {
	svc := NewService(newMockRepo())
	p := &Patient{Family: strptr("Rivera")}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.FHIRID == "" {
		t.Error("expected a fhir id to be assigned")
	}
	if p.VersionID != 1 {
		t.Errorf("expected version 1, got %d", p.VersionID)
	}
}

func TestHandler_UpdateMissing(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	_, err := h.Update(context.Background(), "nope", map[string]interface{}{
		"name": []interface{}{map[string]interface{}{"family": "Rivera"}},
	})
	if !errors.Is(err, bundle.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHandler_CreateThenDelete(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	info, err := h.Create(context.Background(), map[string]interface{}{
		"name":   []interface{}{map[string]interface{}{"family": "Rivera"}},
		"gender": "female",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	resType, id := bundle.SplitLocator(info.Location)
	if resType != "Patient" || id == "" {
		t.Fatalf("unexpected location %q", info.Location)
	}
	if info.ETag != `W/"1"` {
		t.Errorf("expected etag W/\"1\", got %q", info.ETag)
	}
	if err := h.Delete(context.Background(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := h.Delete(context.Background(), id); !errors.Is(err, bundle.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestHandler_CreateBadPayload(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	_, err := h.Create(context.Background(), map[string]interface{}{"active": "yes"})
	var verr *bundle.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
