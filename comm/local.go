package comm

import (
	"context"
	"fmt"
	"sync"
)

// LocalNetwork is an in-process transport simulating a group of MPI-style
// ranks using goroutines and buffered channels, for tests and for single-
// node deployments without a real MPI library. Channels are created
// lazily and keyed by (tag, src, dst), so distinct tags never contend for
// the same buffer — mirroring real MPI's tag-indexed matching.
type LocalNetwork struct {
	mu     sync.Mutex
	size   int
	closed bool
	boxes  map[inboxKey]chan []byte
}

type inboxKey struct {
	tag      Tag
	src, dst Rank
}

// NewLocalNetwork creates a network of size simulated ranks.
func NewLocalNetwork(size int) *LocalNetwork {
	return &LocalNetwork{
		size:  size,
		boxes: make(map[inboxKey]chan []byte),
	}
}

// Communicator returns the Communicator handle for the given rank.
func (n *LocalNetwork) Communicator(rank Rank) Communicator {
	return &localComm{net: n, rank: rank}
}

// Close marks the network closed; Send/Recv calls made after Close fail
// with ErrClosed. Calls already blocked waiting on a mailbox are not woken
// by Close; they return when their message moves or their context ends.
func (n *LocalNetwork) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

func (n *LocalNetwork) box(key inboxKey) (chan []byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrClosed
	}
	ch, ok := n.boxes[key]
	if !ok {
		ch = make(chan []byte, 1)
		n.boxes[key] = ch
	}

	return ch, nil
}

type localComm struct {
	net  *LocalNetwork
	rank Rank
}

func (c *localComm) Rank() Rank { return c.rank }

func (c *localComm) Size() int { return c.net.size }

func (c *localComm) checkRank(r Rank) error {
	if r < 0 || int(r) >= c.net.size {
		return fmt.Errorf("comm.Local: rank %d: %w", r, ErrUnknownRank)
	}

	return nil
}

func (c *localComm) Send(ctx context.Context, tag Tag, dst Rank, payload []byte) error {
	if err := c.checkRank(dst); err != nil {
		return err
	}
	ch, err := c.net.box(inboxKey{tag: tag, src: c.rank, dst: dst})
	if err != nil {
		return fmt.Errorf("comm.Local.Send: %w", err)
	}
	// Copy the payload: the caller's buffer may be reused immediately
	// after Send returns, as a real MPI_Send implies.
	cp := append([]byte(nil), payload...)
	select {
	case ch <- cp:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("comm.Local.Send: %w: %w", ctx.Err(), ErrCommunicationFailure)
	}
}

func (c *localComm) Recv(ctx context.Context, tag Tag, src Rank) ([]byte, error) {
	if err := c.checkRank(src); err != nil {
		return nil, err
	}
	ch, err := c.net.box(inboxKey{tag: tag, src: src, dst: c.rank})
	if err != nil {
		return nil, fmt.Errorf("comm.Local.Recv: %w", err)
	}
	select {
	case payload := <-ch:
		return payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("comm.Local.Recv: %w: %w", ctx.Err(), ErrCommunicationFailure)
	}
}

// Multicast fans the payload out to every rank in dests concurrently. The
// calling process must be src. An empty dests is a documented no-op
// (spec.md §9's open question on empty broadcast destinations).
func (c *localComm) Multicast(ctx context.Context, tag Tag, src Rank, dests []Rank, payload []byte) error {
	if c.rank != src {
		return fmt.Errorf("comm.Local.Multicast: caller rank %d is not src %d: %w", c.rank, src, ErrUnknownRank)
	}
	if len(dests) == 0 {
		return nil // no-op: empty destination view
	}

	errCh := make(chan error, len(dests))
	for _, dst := range dests {
		dst := dst
		go func() {
			errCh <- c.Send(ctx, tag, dst, payload)
		}()
	}
	var firstErr error
	for range dests {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
