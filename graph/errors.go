package graph

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested node or match does not exist.
var ErrNotFound = errors.New("graph: not found")

// NotFound wraps ErrNotFound with a description of what was looked up.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
