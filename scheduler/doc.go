// Package scheduler implements the cooperative task pool spec.md §4.5
// describes: tasks are submitted with a set of dependency tokens tagged
// in, out, or inout, and the pool runs any two tasks concurrently iff
// their token sets do not conflict under the standard read/write
// exclusion rule (multiple readers, single writer, writers exclude
// readers).
//
// The lu driver submits tasks in program order. Submission order alone
// fixes the dependency graph: a task can only ever depend on tasks
// already submitted, so the graph scheduler builds is acyclic by
// construction (see dag.go for a test-only verifier borrowed from the
// acyclicity-checking idiom in dfs/topological.go).
//
// Ready high-priority tasks are preferred, but a worker forced to pick
// starvationLimit of them in a row yields to a ready normal-priority
// task instead: a steady stream of lookahead work must never starve
// the trailing-block updates queued behind it.
//
// Concurrency control mirrors core.Graph's separate-mutex-per-concern
// style (core/types.go's muVert/muEdgeAdj split): one mutex guards the
// token table and dependency graph (a single concern here, since a
// token's reader/writer state IS the graph edge set) and also the ready
// queues, whose sync.Cond waits on it; only worker shutdown uses its own
// synchronization (a WaitGroup).
package scheduler
