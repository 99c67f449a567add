package namespace

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPrefix is matched by every MissingPrefixError.
	ErrMissingPrefix = errors.New("namespace: missing prefix")
	// ErrAmbiguousPrefix indicates a table that maps one prefix to two
	// namespaces, or one namespace to two prefixes.
	ErrAmbiguousPrefix = errors.New("namespace: ambiguous prefix")
)

// MissingPrefixError reports a prefixed name whose prefix is not defined.
type MissingPrefixError struct {
	Prefix string
	Name   string
}

func (e *MissingPrefixError) Error() string {
	return fmt.Sprintf("namespace: no namespace defined for prefix %q in %q", e.Prefix, e.Name)
}

func (e *MissingPrefixError) Is(target error) bool { return target == ErrMissingPrefix }
