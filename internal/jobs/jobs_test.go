package jobs

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func collect[Resp any](t *testing.T, p interface {
	Next(context.Context) (Result[Resp], bool)
}, n int) []Result[Resp] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out := make([]Result[Resp], 0, n)
	for range n {
		r, ok := p.Next(ctx)
		require.True(t, ok, "pipeline ended after %d results", len(out))
		out = append(out, r)
	}
	return out
}

func TestPipelineServesInSubmissionOrder(t *testing.T) {
	t.Parallel()

	p := Start(context.Background(), func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})
	for i := 1; i <= 50; i++ {
		require.NoError(t, p.Submit(Job[int]{ID: JobID(i), Request: i}))
	}
	results := collect[int](t, p, 50)
	for i, r := range results {
		require.Equal(t, JobID(i+1), r.ID)
		require.Equal(t, (i+1)*(i+1), r.Response)
		require.NoError(t, r.Err)
	}
	p.Close()
	p.Wait()
}

func TestPipelineKeepsRunningAfterFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := Start(context.Background(), func(_ context.Context, req string) (string, error) {
		switch req {
		case "fail":
			return "", boom
		case "panic":
			panic("handler exploded")
		}
		return "ok:" + req, nil
	})
	for i, req := range []string{"fail", "panic", "after"} {
		require.NoError(t, p.Submit(Job[string]{ID: JobID(i + 1), Request: req}))
	}
	results := collect[string](t, p, 3)

	require.ErrorIs(t, results[0].Err, boom)
	require.ErrorIs(t, results[1].Err, ErrProcess)
	require.ErrorContains(t, results[1].Err, "handler exploded")
	require.NoError(t, results[2].Err)
	require.Equal(t, "ok:after", results[2].Response)
	require.Equal(t, JobID(3), results[2].ID)

	p.Close()
	p.Wait()
}

func TestPipelineCloseDrainsQueuedJobs(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	p := Start(context.Background(), func(_ context.Context, n int) (int, error) {
		<-release
		return n, nil
	})
	for i := 1; i <= 3; i++ {
		require.NoError(t, p.Submit(Job[int]{ID: JobID(i), Request: i}))
	}
	p.Close()
	require.ErrorIs(t, p.Submit(Job[int]{ID: 4, Request: 4}), ErrClosed)
	close(release)
	p.Wait()

	results := collect[int](t, p, 3)
	require.Equal(t, JobID(3), results[2].ID)
	_, ok := p.Next(context.Background())
	require.False(t, ok)
}

func TestPipelineStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := Start(ctx, func(_ context.Context, n int) (int, error) { return n, nil })
	cancel()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestNextHonoursContext(t *testing.T) {
	t.Parallel()

	p := Start(context.Background(), func(_ context.Context, n int) (int, error) { return n, nil })
	defer func() {
		p.Close()
		p.Wait()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok := p.Next(ctx)
	require.False(t, ok)
}

func TestTrackerAppliesOnlyCurrentJob(t *testing.T) {
	t.Parallel()

	var tr Tracker
	require.False(t, tr.IsCurrent(0))

	first := tr.Begin()
	second := tr.Begin()
	third := tr.Begin()
	require.Equal(t, []JobID{1, 2, 3}, []JobID{first, second, third})

	p := Start(context.Background(), func(_ context.Context, n int) (int, error) { return n, nil })
	for _, id := range []JobID{first, third} {
		require.NoError(t, p.Submit(Job[int]{ID: id, Request: int(id)}))
	}
	var applied []int
	for _, r := range collect[int](t, p, 2) {
		if tr.IsCurrent(r.ID) {
			applied = append(applied, r.Response)
			tr.Finish(r.ID)
		}
	}
	require.Equal(t, []int{3}, applied)
	require.False(t, tr.Pending())
	p.Close()
	p.Wait()
}

func TestJobIDWraps(t *testing.T) {
	t.Parallel()

	require.Equal(t, JobID(0), JobID(math.MaxUint64).Next())
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	type renderRequest struct{}
	require.Equal(t, "renderRequest", kindOf(renderRequest{}))
	require.Equal(t, "renderRequest", kindOf(&renderRequest{}))
	require.Equal(t, "int", kindOf(1))
}
