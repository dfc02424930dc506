// Package careplan implements storage and bundle operations for care
// plan records. A care plan always points at its subject patient via a
// reference string; during bundle processing that reference may arrive
// as a placeholder and is rewritten before the payload reaches this
// package.
package careplan

import (
	"time"

	"github.com/google/uuid"
)

type CarePlan struct {
	ID          uuid.UUID `json:"id"`
	FHIRID      string    `json:"fhir_id"`
	Status      string    `json:"status"`
	Intent      string    `json:"intent"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	SubjectRef  string    `json:"subject_ref"`
	VersionID   int       `json:"version_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func FromPayload(payload map[string]interface{}) (*CarePlan, *FieldError) {
	cp := &CarePlan{}

	if v, ok := payload["status"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: "status", Message: "must be a string"}
		}
		cp.Status = s
	}
	if v, ok := payload["intent"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: "intent", Message: "must be a string"}
		}
		cp.Intent = s
	}
	if v, ok := payload["title"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: "title", Message: "must be a string"}
		}
		cp.Title = &s
	}
	if v, ok := payload["description"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: "description", Message: "must be a string"}
		}
		cp.Description = &s
	}
	if v, ok := payload["subject"]; ok {
		subj, ok := v.(map[string]interface{})
		if !ok {
			return nil, &FieldError{Field: "subject", Message: "must be an object"}
		}
		ref, ok := subj["reference"].(string)
		if !ok || ref == "" {
			return nil, &FieldError{Field: "subject.reference", Message: "is required"}
		}
		cp.SubjectRef = ref
	}
	return cp, nil
}

func (cp *CarePlan) ToPayload() map[string]interface{} {
	out := map[string]interface{}{
		"resourceType": "CarePlan",
		"id":           cp.FHIRID,
		"status":       cp.Status,
		"intent":       cp.Intent,
		"subject":      map[string]interface{}{"reference": cp.SubjectRef},
	}
	if cp.Title != nil {
		out["title"] = *cp.Title
	}
	if cp.Description != nil {
		out["description"] = *cp.Description
	}
	return out
}
