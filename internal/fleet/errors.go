package fleet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an operation references a node id that is not
// present in the registry.
var ErrNotFound = errors.New("node not found")

// ErrInvalidArgument is returned when a request is malformed, such as a
// delete with an empty node id.
var ErrInvalidArgument = errors.New("invalid argument")

// ValidationError reports the required fields missing from a create or
// update request. The operation is rejected before any write happens.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}
