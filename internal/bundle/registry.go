package bundle

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// ResourceInfo describes a stored resource for response assembly.
type ResourceInfo struct {
	Location     string
	ETag         string
	LastModified time.Time
}

// ResourceHandler is the per-type persistence contract. Handlers run
// payload validation before mutating and classify failures with the
// package's sentinel errors (ErrNotFound, ErrConflict) or a
// *ValidationError. All writes must go through the transaction carried in
// ctx so they join the enclosing rollback scope.
type ResourceHandler interface {
	Create(ctx context.Context, payload map[string]interface{}) (*ResourceInfo, error)
	Update(ctx context.Context, id string, payload map[string]interface{}) (*ResourceInfo, error)
	Delete(ctx context.Context, id string) error
}

// Registry maps resource types to their handlers. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	handlers map[string]ResourceHandler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]ResourceHandler)}
}

// Register binds a handler to a resource type.
func (r *Registry) Register(resourceType string, h ResourceHandler) {
	r.handlers[resourceType] = h
}

// Lookup returns the handler for a resource type.
func (r *Registry) Lookup(resourceType string) (ResourceHandler, bool) {
	h, ok := r.handlers[resourceType]
	return h, ok
}

// Types returns the registered resource types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dispatcher routes one entry to the handler registered for its resource
// type and converts every failure — error or panic — into a typed
// OperationResult. The coordinator's control flow depends on always
// receiving a result, so nothing a handler does may escape.
type Dispatcher struct {
	registry *Registry
	logger   zerolog.Logger
}

func NewDispatcher(registry *Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// Apply executes one entry against its handler using the already-resolved
// payload. The context carries the transaction or savepoint handle.
func (d *Dispatcher) Apply(ctx context.Context, entry Entry, payload map[string]interface{}) (result *OperationResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("resource_type", entry.ResourceType).
				Str("operation", string(entry.Operation)).
				Interface("panic", r).
				Msg("resource handler panicked")
			result = FailureResult(ResultServerError, DiagException,
				"handler for %s panicked", entry.ResourceType)
		}
	}()

	h, ok := d.registry.Lookup(entry.ResourceType)
	if !ok {
		return FailureResult(ResultBadRequest, DiagNotSupported,
			"no handler registered for resource type %q", entry.ResourceType)
	}

	switch entry.Operation {
	case OpCreate:
		info, err := h.Create(ctx, payload)
		return d.convert(entry, OpCreate, info, err)
	case OpUpdate:
		_, id := SplitLocator(entry.TargetLocator)
		info, err := h.Update(ctx, id, payload)
		return d.convert(entry, OpUpdate, info, err)
	case OpDelete:
		_, id := SplitLocator(entry.TargetLocator)
		err := h.Delete(ctx, id)
		return d.convert(entry, OpDelete, nil, err)
	default:
		return FailureResult(ResultBadRequest, DiagValue,
			"unsupported operation %q", entry.Operation)
	}
}

// convert maps a handler outcome to the typed result the coordinator
// expects.
func (d *Dispatcher) convert(entry Entry, op Operation, info *ResourceInfo, err error) *OperationResult {
	if err == nil {
		res := &OperationResult{}
		switch op {
		case OpCreate:
			res.Status = ResultCreated
		case OpUpdate:
			res.Status = ResultUpdated
		case OpDelete:
			res.Status = ResultDeleted
		}
		if info != nil {
			res.Location = info.Location
			res.ETag = info.ETag
			res.LastModified = info.LastModified
		}
		return res
	}

	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return FailureResult(ResultInvalid, DiagInvalid, "%s", vErr.Message)
	case errors.Is(err, ErrNotFound):
		return FailureResult(ResultNotFound, DiagNotFound,
			"%s not found", entry.TargetLocator)
	case errors.Is(err, ErrConflict):
		return FailureResult(ResultConflict, DiagConflict, "%s", err.Error())
	default:
		d.logger.Error().Err(err).
			Str("resource_type", entry.ResourceType).
			Str("operation", string(op)).
			Msg("resource handler failed")
		return FailureResult(ResultServerError, DiagException,
			"%s %s failed: %s", op, entry.ResourceType, err.Error())
	}
}
