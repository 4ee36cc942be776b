package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/dbielich/slate/kernel"
)

// starvationLimit bounds how many consecutive high-priority dispatches
// a worker may make before it is forced to prefer a ready normal-
// priority task instead, satisfying spec.md §4.5's "must not starve
// normal priority" over an unbounded stream of ready high-priority
// lookahead tasks.
const starvationLimit = 8

// Task is a unit of work submitted to a Scheduler. Run is invoked on a
// pool worker once every token this task declares a dependency on has
// been released by its predecessors in submission order.
type Task struct {
	// Name identifies the task in diagnostics; not required to be unique.
	Name string
	// Priority controls queue preference among otherwise-runnable tasks.
	Priority kernel.Priority
	// Deps is the task's full dependency-token set.
	Deps []TokenRef
	// Run executes the task body. A non-nil error aborts the Scheduler:
	// no task not already running is started afterward.
	Run func(ctx context.Context) error
}

// Handle is returned by Submit and lets a caller block on one specific
// task's completion without waiting on the whole pool.
type Handle struct {
	node *taskNode
}

// Done returns a channel closed once the task completes (successfully,
// with an error, or abandoned because the pool aborted).
func (h *Handle) Done() <-chan struct{} { return h.node.done }

type tokenState struct {
	writer  *taskNode
	readers []*taskNode
}

type taskNode struct {
	task       Task
	remaining  int32
	successors []*taskNode
	done       chan struct{}
	abandoned  bool
}

// Scheduler is a single-use cooperative task pool: construct with New,
// Submit tasks in program order, then call Wait exactly once. A
// Scheduler is not reusable after Wait returns, matching spec.md §4.5's
// "single cooperative task pool ... within a driver call" framing (one
// Scheduler per top-level driver invocation).
type Scheduler struct {
	mu      sync.Mutex
	tokens  map[TokenID]*tokenState
	workers int

	readyCond  *sync.Cond
	highReady  []*taskNode
	normReady  []*taskNode
	highStreak int // consecutive high-priority dispatches since the last normal one
	pending    int
	closed     bool
	stopAccept bool

	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	errOnce  sync.Once
	firstErr error
}

// New constructs a Scheduler with the given worker count. workers must
// be positive; spec.md §4.7 requires the lu driver to size it
// `lookahead + 2`, a constraint enforced by that package, not here.
func New(ctx context.Context, workers int) (*Scheduler, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoWorkers, invalidArgument(fmt.Sprintf("worker count %d", workers)))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		tokens:  make(map[TokenID]*tokenState),
		workers: workers,
		ctx:     cctx,
		cancel:  cancel,
	}
	s.readyCond = sync.NewCond(&s.mu)
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}
	return s, nil
}

// Submit registers a task and links it into the dependency graph
// implied by its token set against every token-holder seen so far. The
// task becomes runnable immediately if it has no unmet prerequisite.
func (s *Scheduler) Submit(t Task) (*Handle, error) {
	s.mu.Lock()
	if s.stopAccept {
		s.mu.Unlock()
		return nil, ErrClosed
	}

	node := &taskNode{task: t, done: make(chan struct{})}
	preds := make(map[*taskNode]struct{})
	for _, ref := range t.Deps {
		st := s.tokens[ref.Token]
		if st == nil {
			st = &tokenState{}
			s.tokens[ref.Token] = st
		}
		switch ref.Mode {
		case In:
			if st.writer != nil {
				preds[st.writer] = struct{}{}
			}
			st.readers = append(st.readers, node)
		default: // Out, InOut
			if st.writer != nil {
				preds[st.writer] = struct{}{}
			}
			for _, r := range st.readers {
				preds[r] = struct{}{}
			}
			st.readers = nil
			st.writer = node
		}
	}

	for p := range preds {
		select {
		case <-p.done:
			// Predecessor already finished; does not count against
			// node's remaining total.
		default:
			p.successors = append(p.successors, node)
			node.remaining++
		}
	}

	s.pending++
	if node.remaining == 0 {
		s.enqueueLocked(node)
	}
	s.mu.Unlock()
	return &Handle{node: node}, nil
}

func (s *Scheduler) enqueueLocked(n *taskNode) {
	if n.task.Priority == kernel.High {
		s.highReady = append(s.highReady, n)
	} else {
		s.normReady = append(s.normReady, n)
	}
	s.readyCond.Signal()
}

// Wait blocks until every submitted task has run to completion or been
// abandoned, then stops the worker pool and returns the first task
// error encountered, if any, wrapped in ErrAborted.
func (s *Scheduler) Wait() error {
	s.mu.Lock()
	s.stopAccept = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	s.waitForDrain()
	s.mu.Lock()
	s.closed = true
	s.readyCond.Broadcast()
	s.mu.Unlock()
	<-done

	if s.firstErr != nil {
		return fmt.Errorf("scheduler: task failed: %w: %w", s.firstErr, ErrAborted)
	}
	return nil
}

func (s *Scheduler) waitForDrain() {
	s.mu.Lock()
	for s.pending > 0 && s.firstErr == nil {
		s.readyCond.Wait()
	}
	s.mu.Unlock()
}

func (s *Scheduler) workerLoop() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.highReady) == 0 && len(s.normReady) == 0 && !s.closed {
			s.readyCond.Wait()
		}
		if len(s.highReady) == 0 && len(s.normReady) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		var n *taskNode
		switch {
		case len(s.normReady) > 0 && (len(s.highReady) == 0 || s.highStreak >= starvationLimit):
			n = s.normReady[0]
			s.normReady = s.normReady[1:]
			s.highStreak = 0
		case len(s.highReady) > 0:
			n = s.highReady[0]
			s.highReady = s.highReady[1:]
			s.highStreak++
		default:
			n = s.normReady[0]
			s.normReady = s.normReady[1:]
			s.highStreak = 0
		}
		aborted := s.firstErr != nil
		s.mu.Unlock()

		if aborted {
			n.abandoned = true
			s.finishLocked(n, nil)
			continue
		}

		err := n.task.Run(s.ctx)
		if err != nil {
			s.errOnce.Do(func() {
				s.mu.Lock()
				s.firstErr = err
				s.mu.Unlock()
				s.cancel()
			})
		}
		s.finishLocked(n, err)
	}
}

func (s *Scheduler) finishLocked(n *taskNode, err error) {
	close(n.done)
	s.mu.Lock()
	s.pending--
	for _, succ := range n.successors {
		succ.remaining--
		if succ.remaining == 0 {
			s.enqueueLocked(succ)
		}
	}
	s.readyCond.Broadcast()
	s.mu.Unlock()
	_ = err
}
