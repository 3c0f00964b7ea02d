package batch

import (
	"errors"
	"fmt"
)

var ErrConflict = errors.New("a batch job is already running")

// ValidationError rejects a submission before any state changes.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Msg
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Msg)
}
