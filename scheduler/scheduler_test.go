package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dbielich/slate/kernel"
	"github.com/dbielich/slate/scheduler"
)

func TestReadersRunConcurrentlyWriterExcludes(t *testing.T) {
	s, err := scheduler.New(context.Background(), 4)
	require.NoError(t, err)

	col := scheduler.ColumnToken(0)

	var inFlight int32
	var maxInFlight int32
	bump := func() {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}

	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	// Writer seeds the token, then three readers, then a second writer.
	_, err = s.Submit(scheduler.Task{
		Name: "w0", Deps: []scheduler.TokenRef{{Token: col, Mode: scheduler.Out}},
		Run: func(ctx context.Context) error { record("w0"); bump(); return nil },
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("r%d", i)
		_, err = s.Submit(scheduler.Task{
			Name: name, Deps: []scheduler.TokenRef{{Token: col, Mode: scheduler.In}},
			Run: func(ctx context.Context) error { record(name); bump(); return nil },
		})
		require.NoError(t, err)
	}

	_, err = s.Submit(scheduler.Task{
		Name: "w1", Deps: []scheduler.TokenRef{{Token: col, Mode: scheduler.Out}},
		Run: func(ctx context.Context) error { record("w1"); bump(); return nil },
	})
	require.NoError(t, err)

	require.NoError(t, s.Wait())

	require.Equal(t, "w0", order[0])
	require.Equal(t, "w1", order[len(order)-1])
	require.True(t, atomic.LoadInt32(&maxInFlight) >= 2, "readers should have overlapped")
}

func TestHighPriorityPreferredWhenBothReady(t *testing.T) {
	s, err := scheduler.New(context.Background(), 1)
	require.NoError(t, err)

	gate := make(chan struct{})
	started := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	_, err = s.Submit(scheduler.Task{
		Name: "blocker",
		Run: func(ctx context.Context) error {
			close(started)
			<-gate
			record("blocker")
			return nil
		},
	})
	require.NoError(t, err)
	<-started // the single worker is now busy with the blocker

	_, err = s.Submit(scheduler.Task{
		Name: "normal", Priority: kernel.Normal,
		Run: func(ctx context.Context) error { record("normal"); return nil },
	})
	require.NoError(t, err)

	_, err = s.Submit(scheduler.Task{
		Name: "high", Priority: kernel.High,
		Run: func(ctx context.Context) error { record("high"); return nil },
	})
	require.NoError(t, err)

	close(gate)
	require.NoError(t, s.Wait())

	require.Equal(t, []string{"blocker", "high", "normal"}, order)
}

func TestHighPriorityFloodDoesNotStarveNormal(t *testing.T) {
	s, err := scheduler.New(context.Background(), 1)
	require.NoError(t, err)

	gate := make(chan struct{})
	started := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	_, err = s.Submit(scheduler.Task{
		Name: "blocker",
		Run: func(ctx context.Context) error {
			close(started)
			<-gate
			record("blocker")
			return nil
		},
	})
	require.NoError(t, err)
	<-started // the single worker is now busy with the blocker

	// Queue far more independent high-priority tasks than the
	// starvation limit alongside a single normal task, all ready
	// before the worker finishes the blocker.
	for i := 0; i < 32; i++ {
		_, err = s.Submit(scheduler.Task{
			Name: "high", Priority: kernel.High,
			Run: func(ctx context.Context) error { record("high"); return nil },
		})
		require.NoError(t, err)
	}
	_, err = s.Submit(scheduler.Task{
		Name: "normal", Priority: kernel.Normal,
		Run: func(ctx context.Context) error { record("normal"); return nil },
	})
	require.NoError(t, err)

	close(gate)
	require.NoError(t, s.Wait())

	normalAt := -1
	for i, name := range order {
		if name == "normal" {
			normalAt = i
			break
		}
	}
	require.NotEqual(t, -1, normalAt, "normal task never ran")
	require.LessOrEqual(t, normalAt, 9, "normal task starved past the anti-starvation limit")
}

func TestTaskErrorAbortsPoolAndAbandonsSuccessors(t *testing.T) {
	s, err := scheduler.New(context.Background(), 2)
	require.NoError(t, err)

	col := scheduler.ColumnToken(0)
	boom := errors.New("boom")

	_, err = s.Submit(scheduler.Task{
		Deps: []scheduler.TokenRef{{Token: col, Mode: scheduler.Out}},
		Run:  func(ctx context.Context) error { return boom },
	})
	require.NoError(t, err)

	var ran int32
	_, err = s.Submit(scheduler.Task{
		Deps: []scheduler.TokenRef{{Token: col, Mode: scheduler.InOut}},
		Run:  func(ctx context.Context) error { atomic.AddInt32(&ran, 1); return nil },
	})
	require.NoError(t, err)

	waitErr := s.Wait()
	require.Error(t, waitErr)
	require.ErrorIs(t, waitErr, scheduler.ErrAborted)
	require.ErrorIs(t, waitErr, boom)
	require.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

func TestSubmitAfterWaitRejected(t *testing.T) {
	s, err := scheduler.New(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, s.Wait())

	_, err = s.Submit(scheduler.Task{Run: func(ctx context.Context) error { return nil }})
	require.ErrorIs(t, err, scheduler.ErrClosed)
}

func TestNewRejectsNonPositiveWorkers(t *testing.T) {
	_, err := scheduler.New(context.Background(), 0)
	require.ErrorIs(t, err, scheduler.ErrNoWorkers)
}

// TestConcurrentSubmitIsRace mirrors core_test's concurrent-goroutine
// stress-test idiom: many goroutines submit independent tasks to the
// same pool simultaneously and every one must complete exactly once.
func TestConcurrentSubmitIsRace(t *testing.T) {
	s, err := scheduler.New(context.Background(), 8)
	require.NoError(t, err)

	const num = 200
	var wg sync.WaitGroup
	var completed int32
	wg.Add(num)
	for i := 0; i < num; i++ {
		go func(id int) {
			defer wg.Done()
			_, subErr := s.Submit(scheduler.Task{
				Name: fmt.Sprintf("t%d", id),
				Deps: []scheduler.TokenRef{{Token: scheduler.ColumnToken(id % 5), Mode: scheduler.InOut}},
				Run: func(ctx context.Context) error {
					atomic.AddInt32(&completed, 1)
					return nil
				},
			})
			require.NoError(t, subErr)
		}(i)
	}
	wg.Wait()
	require.NoError(t, s.Wait())
	require.Equal(t, int32(num), atomic.LoadInt32(&completed))
}

func TestDetectCycleFindsAndClearsGraphs(t *testing.T) {
	acyclic := map[string][]string{
		"c": {"b"},
		"b": {"a"},
		"a": {},
	}
	require.Nil(t, scheduler.DetectCycle(acyclic))

	cyclic := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}
	require.NotEmpty(t, scheduler.DetectCycle(cyclic))
}

func TestHandleDoneClosesOnCompletion(t *testing.T) {
	s, err := scheduler.New(context.Background(), 1)
	require.NoError(t, err)

	h, err := s.Submit(scheduler.Task{Run: func(ctx context.Context) error { return nil }})
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("handle did not complete")
	}
	require.NoError(t, s.Wait())
}
