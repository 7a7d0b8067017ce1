package middleware

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pygraphkit/graphtik/pkg/network"
	"github.com/pygraphkit/graphtik/pkg/operation"
)

// SizeLimitMiddleware enforces size limits on operation inputs/outputs
// to prevent memory exhaustion.
type SizeLimitMiddleware struct {
	maxInputSize    int64
	maxResultSize   int64
	maxStringLength int
	maxArrayLength  int

	enforceInputSize  bool
	enforceResultSize bool
}

// SizeLimitConfig configures size limit enforcement.
type SizeLimitConfig struct {
	MaxInputSize    int64
	MaxResultSize   int64
	MaxStringLength int
	MaxArrayLength  int

	MaxNetworkSize     int64 // Maximum total composed-network size (all operations)
	MaxOperationCount  int   // Maximum operations in a Network

	EnforceInputSize  bool
	EnforceResultSize bool
}

// DefaultSizeLimitConfig returns default size limit configuration.
func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxInputSize:      10 * 1024 * 1024,
		MaxResultSize:     50 * 1024 * 1024,
		MaxStringLength:   1 * 1024 * 1024,
		MaxArrayLength:    10000,
		MaxNetworkSize:    100 * 1024 * 1024,
		MaxOperationCount: 1000,
		EnforceInputSize:  true,
		EnforceResultSize: true,
	}
}

// NewSizeLimitMiddleware creates a new size limit middleware with default config.
func NewSizeLimitMiddleware() *SizeLimitMiddleware {
	return NewSizeLimitMiddlewareWithConfig(DefaultSizeLimitConfig())
}

// NewSizeLimitMiddlewareWithConfig creates a new size limit middleware with custom config.
func NewSizeLimitMiddlewareWithConfig(config SizeLimitConfig) *SizeLimitMiddleware {
	return &SizeLimitMiddleware{
		maxInputSize:      config.MaxInputSize,
		maxResultSize:     config.MaxResultSize,
		maxStringLength:   config.MaxStringLength,
		maxArrayLength:    config.MaxArrayLength,
		enforceInputSize:  config.EnforceInputSize,
		enforceResultSize: config.EnforceResultSize,
	}
}

// Process enforces size limits on inputs and outputs.
func (m *SizeLimitMiddleware) Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error) {
	if m.enforceInputSize {
		if err := m.validateInputSize(in); err != nil {
			return nil, fmt.Errorf("input size limit exceeded: %w", err)
		}
	}

	out, err := next(ctx, op, in)
	if err != nil {
		return out, err
	}

	if m.enforceResultSize && out != nil {
		if err := m.validateResultSize(out); err != nil {
			return nil, fmt.Errorf("result size limit exceeded: %w", err)
		}
	}

	return out, nil
}

// Name returns the middleware name.
func (m *SizeLimitMiddleware) Name() string {
	return "SizeLimit"
}

func (m *SizeLimitMiddleware) validateInputSize(in operation.Inputs) error {
	for name, value := range in {
		size, err := estimateSize(value)
		if err != nil {
			return fmt.Errorf("failed to estimate size of input %q: %w", name, err)
		}
		if size > m.maxInputSize {
			return fmt.Errorf("input %q size %d bytes exceeds limit %d bytes", name, size, m.maxInputSize)
		}
		if err := m.validateValue(value); err != nil {
			return fmt.Errorf("input %q validation failed: %w", name, err)
		}
	}
	return nil
}

func (m *SizeLimitMiddleware) validateResultSize(out operation.Outputs) error {
	for name, value := range out {
		size, err := estimateSize(value)
		if err != nil {
			return fmt.Errorf("failed to estimate size of output %q: %w", name, err)
		}
		if size > m.maxResultSize {
			return fmt.Errorf("output %q size %d bytes exceeds limit %d bytes", name, size, m.maxResultSize)
		}
		if err := m.validateValue(value); err != nil {
			return err
		}
	}
	return nil
}

func (m *SizeLimitMiddleware) validateValue(value interface{}) error {
	switch v := value.(type) {
	case string:
		if m.maxStringLength > 0 && len(v) > m.maxStringLength {
			return fmt.Errorf("string length %d exceeds limit %d", len(v), m.maxStringLength)
		}
	case []interface{}:
		if m.maxArrayLength > 0 && len(v) > m.maxArrayLength {
			return fmt.Errorf("array length %d exceeds limit %d", len(v), m.maxArrayLength)
		}
		for i, elem := range v {
			if err := m.validateValue(elem); err != nil {
				return fmt.Errorf("array element %d: %w", i, err)
			}
		}
	case map[string]interface{}:
		for key, val := range v {
			if err := m.validateValue(val); err != nil {
				return fmt.Errorf("map key %s: %w", key, err)
			}
		}
	}
	return nil
}

// estimateSize estimates the size of a value in bytes via JSON marshaling.
func estimateSize(value interface{}) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// ValidateNetworkSize validates a composed Network's size before
// execution: operation count and total marshaled size of its names.
func ValidateNetworkSize(net *network.Network, config SizeLimitConfig) error {
	ops := net.Operations()

	if config.MaxOperationCount > 0 && len(ops) > config.MaxOperationCount {
		return fmt.Errorf("network has %d operations, exceeds limit of %d", len(ops), config.MaxOperationCount)
	}

	if config.MaxNetworkSize > 0 {
		type opSummary struct {
			Name     string   `json:"name"`
			Needs    []string `json:"needs"`
			Provides []string `json:"provides"`
		}
		summaries := make([]opSummary, 0, len(ops))
		for _, op := range ops {
			summaries = append(summaries, opSummary{
				Name:     op.Name(),
				Needs:    op.NeedsBases(),
				Provides: op.ProvidesBases(),
			})
		}
		data, err := json.Marshal(summaries)
		if err != nil {
			return fmt.Errorf("failed to marshal network for size check: %w", err)
		}
		size := int64(len(data))
		if size > config.MaxNetworkSize {
			return fmt.Errorf("network size %d bytes exceeds limit %d bytes", size, config.MaxNetworkSize)
		}
	}

	return nil
}
