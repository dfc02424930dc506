package bundle

import "strings"

// placeholderPrefix marks caller-assigned temporary identifiers.
const placeholderPrefix = "urn:uuid:"

// IsPlaceholder reports whether a value looks like a temporary identifier.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, placeholderPrefix)
}

// ReferenceMap maps temporary identifiers to the permanent locations
// assigned as entries commit. It is scoped to exactly one bundle
// invocation and is discarded entirely on rollback.
type ReferenceMap map[string]string

// Register records the permanent location assigned to a temporary id.
func (m ReferenceMap) Register(tempID, location string) {
	m[tempID] = location
}

// Resolve rewrites placeholder references in a payload using the reference
// map. The input payload is never mutated; a deep copy is returned. Any
// placeholder found under a "reference" field that has no mapping yet is
// reported in unresolved and left untouched — a soft failure surfaced in
// the entry outcome, not a fatal one.
func Resolve(payload map[string]interface{}, refs ReferenceMap) (resolved map[string]interface{}, unresolved []string) {
	if payload == nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	var walk func(v interface{}, isRef bool) interface{}
	walk = func(v interface{}, isRef bool) interface{} {
		switch val := v.(type) {
		case map[string]interface{}:
			out := make(map[string]interface{}, len(val))
			for k, child := range val {
				out[k] = walk(child, k == "reference")
			}
			return out
		case []interface{}:
			out := make([]interface{}, len(val))
			for i, item := range val {
				out[i] = walk(item, isRef)
			}
			return out
		case string:
			if mapped, ok := refs[val]; ok {
				return mapped
			}
			if isRef && IsPlaceholder(val) && !seen[val] {
				seen[val] = true
				unresolved = append(unresolved, val)
			}
			return val
		default:
			return val
		}
	}

	resolved = walk(payload, false).(map[string]interface{})
	return resolved, unresolved
}
