package comm

import "context"

// Rank identifies one process in the communicator's group.
type Rank int

// Tag disjointness (spec.md §4.3, critical invariant) is the caller's
// responsibility: within one driver iteration k, distinct broadcasts that
// could otherwise collide on identical (src,dst) pairs must use disjoint
// tags. The worked driver (lu package) encodes:
//
//   - Panel-row broadcasts:       tag = row index i.
//   - Trailing-column broadcasts: tag = column index j + Mt.
//   - Lookahead-column broadcasts: tag = j.
type Tag uint64

// Communicator is the point-to-point and multicast transport a Matrix
// uses to move tiles between processes. Implementations must preserve tag
// semantics from the caller's viewpoint even when built on an underlying
// collective (tree or pipelined).
type Communicator interface {
	// Rank returns this process's rank within the group.
	Rank() Rank

	// Size returns the total number of ranks in the group.
	Size() int

	// Send transmits payload to dst tagged with tag. Blocks until the
	// transport has accepted the message (for Local, until a matching
	// Recv has drained it or buffer space exists).
	Send(ctx context.Context, tag Tag, dst Rank, payload []byte) error

	// Recv blocks until a payload tagged tag arrives from src, or ctx is
	// done.
	Recv(ctx context.Context, tag Tag, src Rank) ([]byte, error)

	// Multicast sends payload (meaningful only on the calling process,
	// which must be src) to every rank in dests tagged with tag. Per
	// spec.md §9, an empty dests is a documented no-op. The calling
	// process must be src; Multicast is how the owner of a tile
	// publishes it, and every destination rank retrieves it with Recv
	// using the same tag and src.
	Multicast(ctx context.Context, tag Tag, src Rank, dests []Rank, payload []byte) error
}
