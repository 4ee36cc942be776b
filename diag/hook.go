package diag

import "github.com/go-logr/logr"

// Hook is the diagnostic channel the lu driver reports non-fatal numeric
// events on. It is a type alias, not a new interface, so any logr sink
// works unmodified.
type Hook = logr.Logger

// Discard returns a Hook that drops every record, the default when a
// caller supplies no logger.
func Discard() Hook {
	return logr.Discard()
}

// Event keys used consistently across every Hook.Info call the lu
// package makes, so a structured-logging backend can index on them.
const (
	// KeyColumn names the panel column index a diagnostic concerns.
	KeyColumn = "column"
	// KeyKind names the diagnostic's kind (see the Kind* constants).
	KeyKind = "kind"
)

// Kind values for the "kind" structured field.
const (
	// KindSingularPivot reports a zero pivot encountered during getrf
	// (spec.md §4.6, §8 property 9).
	KindSingularPivot = "singular_pivot"
)

// SingularPivot reports a zero pivot at column, following spec.md §4.6's
// "emit a warning-level diagnostic via the observability hook; do not
// raise".
func SingularPivot(h Hook, column int) {
	h.Info("zero pivot encountered; factorization continues", KeyKind, KindSingularPivot, KeyColumn, column)
}
