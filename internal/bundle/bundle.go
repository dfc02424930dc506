// Package bundle implements transaction and batch processing of clinical
// record bundles: structural validation, placeholder-reference resolution,
// per-type operation dispatch, transaction coordination with savepoints,
// and response assembly with a strict one-response-per-request guarantee.
package bundle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mode declares how a bundle's entries are processed.
type Mode string

const (
	// ModeTransaction processes all entries atomically: any failure rolls
	// back every entry.
	ModeTransaction Mode = "transaction"
	// ModeBatch processes entries independently: partial success is
	// expected and reported per entry.
	ModeBatch Mode = "batch"
)

// Valid reports whether the mode is a known processing mode.
func (m Mode) Valid() bool {
	return m == ModeTransaction || m == ModeBatch
}

// ResponseMode returns the mode marker used on response bundles.
func (m Mode) ResponseMode() string {
	return string(m) + "-response"
}

// Operation is the mutation an entry requests.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid reports whether the operation is known.
func (o Operation) Valid() bool {
	return o == OpCreate || o == OpUpdate || o == OpDelete
}

// Entry is one unit of work within a bundle.
type Entry struct {
	// TemporaryID is an optional caller-assigned placeholder (urn:uuid:...)
	// that later entries in the same transaction may reference.
	TemporaryID   string                 `json:"temporaryId,omitempty"`
	ResourceType  string                 `json:"resourceType"`
	Operation     Operation              `json:"operation"`
	TargetLocator string                 `json:"targetLocator,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

// Bundle is the request envelope: an ordered sequence of entries processed
// under one declared mode.
type Bundle struct {
	Mode    Mode    `json:"mode"`
	Entries []Entry `json:"entries"`
}

// BundleStatus summarizes the outcome of a processed bundle.
type BundleStatus string

const (
	StatusSuccess          BundleStatus = "success"
	StatusPartialSuccess   BundleStatus = "partial_success"
	StatusFailed           BundleStatus = "failed"
	StatusValidationFailed BundleStatus = "validation_failed"
)

// ResponseEntry is the outcome of one request entry. Diagnostics are
// present on non-success outcomes and on soft reference-resolution
// warnings.
type ResponseEntry struct {
	Status       string       `json:"status"`
	Location     string       `json:"location,omitempty"`
	ETag         string       `json:"etag,omitempty"`
	LastModified *time.Time   `json:"lastModified,omitempty"`
	Diagnostics  *Diagnostics `json:"diagnostics,omitempty"`
}

// ResponseBundle is the response envelope. Its entry count always equals
// the request entry count.
type ResponseBundle struct {
	Mode    string          `json:"mode"`
	Status  BundleStatus    `json:"status"`
	Entries []ResponseEntry `json:"entries"`
}

// ParseBundle decodes a raw JSON body into a Bundle.
func ParseBundle(body []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("invalid bundle JSON: %w", err)
	}
	return &b, nil
}

// SplitLocator splits a "ResourceType/id" locator into its parts. The id
// is empty when the locator carries no slash.
func SplitLocator(locator string) (resourceType, id string) {
	parts := strings.SplitN(locator, "/", 2)
	resourceType = parts[0]
	if len(parts) == 2 {
		id = parts[1]
	}
	return resourceType, id
}

// FormatLocator builds a "ResourceType/id" locator.
func FormatLocator(resourceType, id string) string {
	return fmt.Sprintf("%s/%s", resourceType, id)
}
