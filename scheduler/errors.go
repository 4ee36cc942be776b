package scheduler

import (
	"errors"
	"fmt"

	"github.com/dbielich/slate/errtax"
)

// ErrNoWorkers is returned by New when the requested worker count is
// not positive.
var ErrNoWorkers = errors.New("scheduler: worker count must be positive")

// ErrClosed is returned by Submit after Wait has been called on the
// same Scheduler; a Scheduler is single-use, one per driver call.
var ErrClosed = errors.New("scheduler: scheduler already closed")

// ErrAborted is returned by Wait (wrapping the task's own error) when a
// task's Run returns a non-nil error: the pool stops handing out new
// work and every task still queued is abandoned rather than executed.
var ErrAborted = errors.New("scheduler: aborted by task failure")

func invalidArgument(msg string) error {
	return fmt.Errorf("scheduler: %s: %w", msg, errtax.ErrInvalidArgument)
}
