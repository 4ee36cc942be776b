package lu

import (
	"errors"
	"fmt"

	"github.com/dbielich/slate/errtax"
)

// ErrNegativeLookahead is returned when Lookahead is negative.
var ErrNegativeLookahead = errors.New("lu: lookahead must be >= 0")

// ErrNonPositiveInnerBlocking is returned when InnerBlocking is <= 0.
var ErrNonPositiveInnerBlocking = errors.New("lu: inner blocking must be > 0")

// ErrExcessiveMaxPanelThreads is returned when MaxPanelThreads exceeds
// the runtime's GOMAXPROCS.
var ErrExcessiveMaxPanelThreads = errors.New("lu: max panel threads exceeds runtime maximum")

// ErrTooFewWorkers is returned when an explicit WithWorkers value is
// lower than the spec's minimum (lookahead + 2).
var ErrTooFewWorkers = errors.New("lu: worker count below lookahead + 2 minimum")

func invalidArgument(sentinel error) error {
	return fmt.Errorf("lu: %w: %w", sentinel, errtax.ErrInvalidArgument)
}
