package bundle

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func postBundle(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/bundles", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Process(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandler_Success(t *testing.T) {
	rig := newRig()
	h := NewHandler(rig.coordinator, zerolog.Nop())

	rec := postBundle(t, h, `{
		"mode": "transaction",
		"entries": [
			{"resourceType": "Patient", "operation": "create", "payload": {"active": true}}
		]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ResponseBundle
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != StatusSuccess {
		t.Errorf("expected success, got %s", resp.Status)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Status != "201" {
		t.Errorf("unexpected entries: %+v", resp.Entries)
	}
}

func TestHandler_MalformedJSON(t *testing.T) {
	rig := newRig()
	h := NewHandler(rig.coordinator, zerolog.Nop())

	rec := postBundle(t, h, `{"mode": `)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(StatusValidationFailed)) {
		t.Errorf("expected validation_failed body, got %s", rec.Body.String())
	}
}

func TestHandler_StructuralRejection(t *testing.T) {
	rig := newRig()
	h := NewHandler(rig.coordinator, zerolog.Nop())

	rec := postBundle(t, h, `{"mode": "pipeline", "entries": []}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status     BundleStatus `json:"status"`
		Violations []Violation  `json:"violations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != StatusValidationFailed {
		t.Errorf("expected validation_failed, got %s", body.Status)
	}
	if len(body.Violations) == 0 {
		t.Error("expected violations in body")
	}
}

func TestHandler_StorageFailure(t *testing.T) {
	rig := newRig()
	rig.store.beginErr = errors.New("pool exhausted")
	h := NewHandler(rig.coordinator, zerolog.Nop())

	rec := postBundle(t, h, `{
		"mode": "batch",
		"entries": [
			{"resourceType": "Patient", "operation": "create", "payload": {}}
		]
	}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "storage unavailable") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
