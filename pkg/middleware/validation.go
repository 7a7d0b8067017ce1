package middleware

import (
	"context"
	"fmt"

	"github.com/pygraphkit/graphtik/pkg/operation"
)

// ValidationMiddleware validates an operation's declared needs/provides
// before executing it, via a pluggable registry.
type ValidationMiddleware struct {
	registry interface {
		Validate(op *operation.Operation) error
	}
}

// NewValidationMiddleware creates a new validation middleware.
func NewValidationMiddleware(registry interface{ Validate(op *operation.Operation) error }) *ValidationMiddleware {
	return &ValidationMiddleware{registry: registry}
}

// Process validates the operation before execution.
func (m *ValidationMiddleware) Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error) {
	if m.registry != nil {
		if err := m.registry.Validate(op); err != nil {
			return nil, fmt.Errorf("operation %q validation failed: %w", op.Name(), err)
		}
	}
	return next(ctx, op, in)
}

// Name returns the middleware name.
func (m *ValidationMiddleware) Name() string {
	return "Validation"
}

// InputValidationMiddleware validates operation inputs before execution.
type InputValidationMiddleware struct {
	maxInputCount int
	maxInputSize  int64 // bytes, checked for string-valued inputs
}

// NewInputValidationMiddleware creates a new input validation middleware.
func NewInputValidationMiddleware(maxInputSize int64) *InputValidationMiddleware {
	return &InputValidationMiddleware{maxInputCount: 100, maxInputSize: maxInputSize}
}

// Process validates inputs before execution.
func (m *InputValidationMiddleware) Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error) {
	if m.maxInputCount > 0 && len(in) > m.maxInputCount {
		return nil, fmt.Errorf("too many inputs: %d (max %d)", len(in), m.maxInputCount)
	}

	for name, value := range in {
		if str, ok := value.(string); ok {
			if m.maxInputSize > 0 && int64(len(str)) > m.maxInputSize {
				return nil, fmt.Errorf("input %q too large: %d bytes (max %d)", name, len(str), m.maxInputSize)
			}
		}
	}

	return next(ctx, op, in)
}

// Name returns the middleware name.
func (m *InputValidationMiddleware) Name() string {
	return "InputValidation"
}
