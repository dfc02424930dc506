// Package patient implements storage and bundle operations for patient
// demographic records.
package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID        uuid.UUID  `json:"id"`
	FHIRID    string     `json:"fhir_id"`
	Active    bool       `json:"active"`
	Family    *string    `json:"family,omitempty"`
	Given     *string    `json:"given,omitempty"`
	Gender    *string    `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	VersionID int        `json:"version_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FromPayload maps a resource body onto a Patient. Unknown fields are
// ignored; malformed known fields surface as named field errors so the
// caller can report a precise diagnostic.
func FromPayload(payload map[string]interface{}) (*Patient, *FieldError) {
	p := &Patient{Active: true}

	if v, ok := payload["active"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, &FieldError{Field: "active", Message: "must be a boolean"}
		}
		p.Active = b
	}
	if v, ok := payload["name"]; ok {
		names, ok := v.([]interface{})
		if !ok || len(names) == 0 {
			return nil, &FieldError{Field: "name", Message: "must be a non-empty array"}
		}
		first, ok := names[0].(map[string]interface{})
		if !ok {
			return nil, &FieldError{Field: "name", Message: "entries must be objects"}
		}
		if f, ok := first["family"].(string); ok && f != "" {
			p.Family = &f
		}
		if g, ok := first["given"].([]interface{}); ok && len(g) > 0 {
			if s, ok := g[0].(string); ok && s != "" {
				p.Given = &s
			}
		}
	}
	if v, ok := payload["gender"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: "gender", Message: "must be a string"}
		}
		p.Gender = &s
	}
	if v, ok := payload["birthDate"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: "birthDate", Message: "must be a string"}
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, &FieldError{Field: "birthDate", Message: "must be formatted YYYY-MM-DD"}
		}
		p.BirthDate = &t
	}
	return p, nil
}

func (p *Patient) ToPayload() map[string]interface{} {
	out := map[string]interface{}{
		"resourceType": "Patient",
		"id":           p.FHIRID,
		"active":       p.Active,
	}
	name := map[string]interface{}{}
	if p.Family != nil {
		name["family"] = *p.Family
	}
	if p.Given != nil {
		name["given"] = []interface{}{*p.Given}
	}
	if len(name) > 0 {
		out["name"] = []interface{}{name}
	}
	if p.Gender != nil {
		out["gender"] = *p.Gender
	}
	if p.BirthDate != nil {
		out["birthDate"] = p.BirthDate.Format("2006-01-02")
	}
	return out
}

// FieldError names the payload field that failed to map.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }
