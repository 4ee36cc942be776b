// Package comm: sentinel error set.
package comm

import "errors"

var (
	// ErrCommunicationFailure is returned on unrecoverable transport error
	// (spec.md §4.3, §7). After this error, the matrix is left with every
	// tile's origin still coherent locally, but remote replicas undefined.
	ErrCommunicationFailure = errors.New("comm: communication failure")

	// ErrUnknownRank indicates a destination or source rank outside
	// [0, Size()).
	ErrUnknownRank = errors.New("comm: unknown rank")

	// ErrClosed indicates an operation on a Local network that has been
	// shut down.
	ErrClosed = errors.New("comm: communicator closed")
)
