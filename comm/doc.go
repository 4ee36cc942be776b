// Package comm implements the point-to-point and multicast primitives the
// distributed matrix and driver use to move tiles between processes
// (spec.md §4.3). A broadcast is "send this tile to a set of destination
// processes" as a single operation; the destination set is derived by the
// caller (dmatrix) from a sub-matrix view.
//
// No MPI binding exists anywhere in the example pack this engine was
// grounded on, so Communicator is implemented here by Local, an in-process
// transport built from goroutines and buffered channels — the same
// "goroutines as the concurrency primitive" idiom the teacher repo already
// uses for its own thread-safety tests. A real MPI (or NVSHMEM, or
// UCX) binding would implement the same Communicator interface without
// requiring any change to dmatrix or lu.
package comm
