// Package schema validates named values against JSON Schema documents
// using gojsonschema, and provides a decorator that wraps an
// operation.Body so validation runs as an around-compute step rather
// than scattered through body implementations (§9: keyword-rename and
// marshalling are adapters around the mapping-in/mapping-out contract;
// schema validation is another such adapter).
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pygraphkit/graphtik/pkg/operation"
)

// FieldError is one schema violation, shaped after gojsonschema's
// ResultError so callers don't need to import that package directly.
type FieldError struct {
	Field       string
	Type        string
	Description string
}

// Result is the outcome of validating one value against one schema.
type Result struct {
	Valid  bool
	Errors []FieldError
}

// Registry holds compiled schema loaders keyed by data name, so a
// single schema document can be registered once and reused across
// every operation that produces or consumes that name.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]gojsonschema.JSONLoader
}

// NewRegistry returns an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]gojsonschema.JSONLoader)}
}

// Register parses schemaJSON and associates it with name. Returns an
// error if schemaJSON is not valid JSON.
func (r *Registry) Register(name string, schemaJSON []byte) error {
	var probe map[string]interface{}
	if err := json.Unmarshal(schemaJSON, &probe); err != nil {
		return fmt.Errorf("schema: invalid schema for %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[name] = gojsonschema.NewBytesLoader(schemaJSON)
	return nil
}

// Has reports whether a schema is registered for name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.loaders[name]
	return ok
}

// Validate checks value against the schema registered for name. If no
// schema is registered for name, it returns (Result{Valid: true}, nil)
// — validation is opt-in per name.
func (r *Registry) Validate(name string, value interface{}) (Result, error) {
	r.mu.RLock()
	loader, ok := r.loaders[name]
	r.mu.RUnlock()
	if !ok {
		return Result{Valid: true}, nil
	}

	valueBytes, err := json.Marshal(value)
	if err != nil {
		return Result{}, fmt.Errorf("schema: serializing %q for validation: %w", name, err)
	}
	raw, err := gojsonschema.Validate(loader, gojsonschema.NewBytesLoader(valueBytes))
	if err != nil {
		return Result{}, fmt.Errorf("schema: validating %q: %w", name, err)
	}
	if raw.Valid() {
		return Result{Valid: true}, nil
	}

	errs := make([]FieldError, 0, len(raw.Errors()))
	for _, e := range raw.Errors() {
		errs = append(errs, FieldError{Field: e.Field(), Type: e.Type(), Description: e.Description()})
	}
	return Result{Valid: false, Errors: errs}, nil
}

// WrapBody returns an operation.Body that validates every named input
// before calling body and every named output before returning, failing
// closed: the first schema violation on either side becomes the body's
// error (surfaced to the executor as a *types.UserFnError, same as any
// other body failure).
func WrapBody(body operation.Body, registry *Registry) operation.Body {
	return func(in operation.Inputs) (operation.Outputs, error) {
		for name, value := range in {
			result, err := registry.Validate(name, value)
			if err != nil {
				return nil, err
			}
			if !result.Valid {
				return nil, fmt.Errorf("input %q failed schema validation: %v", name, result.Errors)
			}
		}

		out, err := body(in)
		if err != nil {
			return out, err
		}

		for name, value := range out {
			result, err := registry.Validate(name, value)
			if err != nil {
				return out, err
			}
			if !result.Valid {
				return out, fmt.Errorf("output %q failed schema validation: %v", name, result.Errors)
			}
		}
		return out, nil
	}
}
