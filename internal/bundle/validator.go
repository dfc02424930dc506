package bundle

import "fmt"

// Violation is one structural problem found in a request bundle. A
// BundleIndex of -1 marks bundle-level violations.
type Violation struct {
	EntryIndex int    `json:"entryIndex"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// Validator performs structural validation of request bundles before any
// store access. It never mutates its input.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns all structural violations found in the bundle. A
// non-empty result fails the whole call: no entry is dispatched.
func (v *Validator) Validate(b *Bundle) []Violation {
	var violations []Violation

	if !b.Mode.Valid() {
		violations = append(violations, Violation{
			EntryIndex: -1,
			Field:      "mode",
			Message:    fmt.Sprintf("mode must be %q or %q, got %q", ModeTransaction, ModeBatch, b.Mode),
		})
	}

	if len(b.Entries) == 0 {
		violations = append(violations, Violation{
			EntryIndex: -1,
			Field:      "entries",
			Message:    "bundle must contain at least one entry",
		})
	}

	for i, entry := range b.Entries {
		violations = append(violations, v.validateEntry(i, entry)...)
	}

	return violations
}

func (v *Validator) validateEntry(i int, entry Entry) []Violation {
	var violations []Violation

	add := func(field, format string, args ...interface{}) {
		violations = append(violations, Violation{
			EntryIndex: i,
			Field:      field,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if entry.ResourceType == "" {
		add("resourceType", "resourceType is required")
	}

	switch {
	case entry.Operation == "":
		add("operation", "operation is required")
	case !entry.Operation.Valid():
		add("operation", "unknown operation %q", entry.Operation)
	}

	switch entry.Operation {
	case OpCreate:
		if entry.Payload == nil {
			add("payload", "payload is required for create")
		}
		if entry.TargetLocator != "" {
			add("targetLocator", "targetLocator is not allowed for create")
		}
	case OpUpdate:
		if entry.Payload == nil {
			add("payload", "payload is required for update")
		}
		violations = append(violations, v.validateLocator(i, entry)...)
	case OpDelete:
		violations = append(violations, v.validateLocator(i, entry)...)
	}

	return violations
}

func (v *Validator) validateLocator(i int, entry Entry) []Violation {
	var violations []Violation

	add := func(format string, args ...interface{}) {
		violations = append(violations, Violation{
			EntryIndex: i,
			Field:      "targetLocator",
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if entry.TargetLocator == "" {
		add("targetLocator is required for %s", entry.Operation)
		return violations
	}

	locatorType, id := SplitLocator(entry.TargetLocator)
	if id == "" {
		add("targetLocator must have the form ResourceType/id, got %q", entry.TargetLocator)
		return violations
	}
	if entry.ResourceType != "" && locatorType != entry.ResourceType {
		add("targetLocator type %q does not match entry resourceType %q", locatorType, entry.ResourceType)
	}

	return violations
}
