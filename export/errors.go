package export

import (
	"errors"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/namespace"
)

// ErrInvalidRequest indicates request parameters that cannot be used, such
// as a find value that does not parse as its declared type.
var ErrInvalidRequest = errors.New("export: invalid request")

// ErrorCode classifies export failures for entry points.
type ErrorCode string

const (
	ErrCodeConfiguration  ErrorCode = "CONFIGURATION"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeSerialization  ErrorCode = "SERIALIZATION"
)

// Code returns the error code for err, or "" for nil.
func Code(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, namespace.ErrMissingPrefix), errors.Is(err, namespace.ErrAmbiguousPrefix):
		return ErrCodeConfiguration
	case errors.Is(err, graph.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrInvalidRequest):
		return ErrCodeInvalidRequest
	default:
		return ErrCodeSerialization
	}
}
