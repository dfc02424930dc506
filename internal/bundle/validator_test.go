package bundle

import "testing"

func TestValidate_ValidBundle(t *testing.T) {
	v := NewValidator()
	b := &Bundle{
		Mode: ModeTransaction,
		Entries: []Entry{
			{ResourceType: "Patient", Operation: OpCreate, Payload: map[string]interface{}{"x": 1}},
			{ResourceType: "Patient", Operation: OpUpdate, TargetLocator: "Patient/p-1", Payload: map[string]interface{}{"x": 1}},
			{ResourceType: "Patient", Operation: OpDelete, TargetLocator: "Patient/p-2"},
		},
	}
	if violations := v.Validate(b); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestValidate_BundleLevel(t *testing.T) {
	v := NewValidator()
	violations := v.Validate(&Bundle{Mode: "pipeline"})
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", violations)
	}
	for _, viol := range violations {
		if viol.EntryIndex != -1 {
			t.Errorf("bundle-level violation should carry index -1, got %d", viol.EntryIndex)
		}
	}
}

func TestValidate_EntryRules(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		name  string
		entry Entry
		field string
	}{
		{"missing resource type", Entry{Operation: OpCreate, Payload: map[string]interface{}{}}, "resourceType"},
		{"missing operation", Entry{ResourceType: "Patient"}, "operation"},
		{"unknown operation", Entry{ResourceType: "Patient", Operation: "upsert"}, "operation"},
		{"create without payload", Entry{ResourceType: "Patient", Operation: OpCreate}, "payload"},
		{"create with locator", Entry{ResourceType: "Patient", Operation: OpCreate, Payload: map[string]interface{}{}, TargetLocator: "Patient/p-1"}, "targetLocator"},
		{"update without payload", Entry{ResourceType: "Patient", Operation: OpUpdate, TargetLocator: "Patient/p-1"}, "payload"},
		{"update without locator", Entry{ResourceType: "Patient", Operation: OpUpdate, Payload: map[string]interface{}{}}, "targetLocator"},
		{"delete without locator", Entry{ResourceType: "Patient", Operation: OpDelete}, "targetLocator"},
		{"locator missing id", Entry{ResourceType: "Patient", Operation: OpDelete, TargetLocator: "Patient"}, "targetLocator"},
		{"locator type mismatch", Entry{ResourceType: "Patient", Operation: OpDelete, TargetLocator: "Observation/o-1"}, "targetLocator"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			violations := v.Validate(&Bundle{Mode: ModeBatch, Entries: []Entry{tc.entry}})
			if len(violations) == 0 {
				t.Fatal("expected violations")
			}
			found := false
			for _, viol := range violations {
				if viol.Field == tc.field {
					found = true
					if viol.EntryIndex != 0 {
						t.Errorf("expected entry index 0, got %d", viol.EntryIndex)
					}
				}
			}
			if !found {
				t.Errorf("expected a violation on field %q, got %v", tc.field, violations)
			}
		})
	}
}

func TestValidate_ReportsAllEntries(t *testing.T) {
	v := NewValidator()
	b := &Bundle{
		Mode: ModeTransaction,
		Entries: []Entry{
			{ResourceType: "Patient", Operation: OpCreate},
			{ResourceType: "Patient", Operation: OpDelete},
		},
	}
	violations := v.Validate(b)
	indexes := map[int]bool{}
	for _, viol := range violations {
		indexes[viol.EntryIndex] = true
	}
	if !indexes[0] || !indexes[1] {
		t.Errorf("expected violations on both entries, got %v", violations)
	}
}
