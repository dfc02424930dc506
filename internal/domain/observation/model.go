// Package observation implements storage and bundle operations for
// clinical measurement records.
package observation

import (
	"time"

	"github.com/google/uuid"
)

type Observation struct {
	ID          uuid.UUID  `json:"id"`
	FHIRID      string     `json:"fhir_id"`
	Status      string     `json:"status"`
	Code        string     `json:"code"`
	Display     *string    `json:"display,omitempty"`
	Value       *float64   `json:"value,omitempty"`
	Unit        *string    `json:"unit,omitempty"`
	SubjectRef  string     `json:"subject_ref"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
	VersionID   int        `json:"version_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func FromPayload(payload map[string]interface{}) (*Observation, *FieldError) {
	o := &Observation{}

	if v, ok := payload["status"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: "status", Message: "must be a string"}
		}
		o.Status = s
	}
	if v, ok := payload["code"]; ok {
		code, ok := v.(map[string]interface{})
		if !ok {
			return nil, &FieldError{Field: "code", Message: "must be an object"}
		}
		codings, ok := code["coding"].([]interface{})
		if !ok || len(codings) == 0 {
			return nil, &FieldError{Field: "code.coding", Message: "must be a non-empty array"}
		}
		first, ok := codings[0].(map[string]interface{})
		if !ok {
			return nil, &FieldError{Field: "code.coding", Message: "entries must be objects"}
		}
		if c, ok := first["code"].(string); ok {
			o.Code = c
		}
		if d, ok := first["display"].(string); ok && d != "" {
			o.Display = &d
		}
	}
	if v, ok := payload["valueQuantity"]; ok {
		q, ok := v.(map[string]interface{})
		if !ok {
			return nil, &FieldError{Field: "valueQuantity", Message: "must be an object"}
		}
		val, ok := q["value"].(float64)
		if !ok {
			return nil, &FieldError{Field: "valueQuantity.value", Message: "must be a number"}
		}
		o.Value = &val
		if u, ok := q["unit"].(string); ok && u != "" {
			o.Unit = &u
		}
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
		o.SubjectRef = ref
	}
	if v, ok := payload["effectiveDateTime"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: "effectiveDateTime", Message: "must be a string"}
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, &FieldError{Field: "effectiveDateTime", Message: "must be RFC 3339"}
		}
		o.EffectiveAt = &t
	}
	return o, nil
}

func (o *Observation) ToPayload() map[string]interface{} {
	coding := map[string]interface{}{"code": o.Code}
	if o.Display != nil {
		coding["display"] = *o.Display
	}
	out := map[string]interface{}{
		"resourceType": "Observation",
		"id":           o.FHIRID,
		"status":       o.Status,
		"code":         map[string]interface{}{"coding": []interface{}{coding}},
		"subject":      map[string]interface{}{"reference": o.SubjectRef},
	}
	if o.Value != nil {
		q := map[string]interface{}{"value": *o.Value}
		if o.Unit != nil {
			q["unit"] = *o.Unit
		}
		out["valueQuantity"] = q
	}
	if o.EffectiveAt != nil {
		out["effectiveDateTime"] = o.EffectiveAt.Format(time.RFC3339)
	}
	return out
}
