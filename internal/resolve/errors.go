package resolve

import (
	"errors"
	"fmt"

	"alumni-engine/internal/domain"
)

var ErrEmptyName = errors.New("name is empty")

// ResolutionFailed means a strategy produced no acceptable profile URL.
// Primary failures are retryable with the fallback strategy; fallback
// failures are terminal for the item.
type ResolutionFailed struct {
	Strategy domain.Strategy
	Reason   string
	Err      error
}

func (e *ResolutionFailed) Error() string {
	msg := fmt.Sprintf("%s resolution failed", e.Strategy)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionFailed) Unwrap() error { return e.Err }

func (e *ResolutionFailed) Retryable() bool { return e.Strategy == domain.StrategyPrimary }

// IsRetryable reports whether err is a primary failure that fallback may recover.
func IsRetryable(err error) bool {
	var rf *ResolutionFailed
	return errors.As(err, &rf) && rf.Retryable()
}
