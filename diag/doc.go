// Package diag carries the driver's diagnostic-channel behavior
// (spec.md §9: "the worked driver contains TODO: return value — the
// contract between pivot/singularity detection and the caller is
// undefined. Specify the diagnostic-channel behavior but do not invent a
// status-code return.").
//
// A Hook is a logr.Logger: the lu driver calls Info with structured keys
// on a zero-pivot/zero-diagonal event rather than returning a status
// code. go-logr/logr was chosen over inventing a bespoke diagnostics
// interface because it is the one pluggable structured-logging
// dependency anywhere in the retrieval pack (gomlx-stablehlo depends on
// it), and because its Logger value is itself a sink interface a caller
// can swap for any backend (zap, zerolog, testr) without this package
// changing.
package diag
