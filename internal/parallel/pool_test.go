package parallel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionStats(t *testing.T) {
	stats := NewExecutionStats()
	assert.Equal(t, int64(0), stats.TasksSubmitted)

	stats.RecordTaskSubmitted()
	assert.Equal(t, int64(1), stats.TasksSubmitted)

	duration := 100 * time.Millisecond
	stats.RecordTaskCompleted(duration)
	assert.Equal(t, int64(1), stats.TasksCompleted)

	err := context.DeadlineExceeded
	stats.RecordTaskFailed(err)
	assert.Equal(t, int64(1), stats.TasksFailed)
	assert.Equal(t, err, stats.LastError)

	stats.RecordWorkerCount(2)
	assert.Equal(t, 2, stats.PeakWorkerCount)

	stats.RecordQueueDepth(1)
	assert.Equal(t, 1, stats.PeakQueueDepth)

	stats.Finalize()
	assert.Greater(t, stats.TotalExecutionTime, time.Duration(0))
}

func TestDeadlockDetector(t *testing.T) {
	dd := NewDeadlockDetector(100*time.Millisecond, 50*time.Millisecond)
	defer dd.Shutdown()

	dd.RegisterTask("bmc", "bounded model checking task")
	assert.Equal(t, 1, dd.GetActiveTaskCount())

	dd.UpdateTask("bmc")

	dd.UnregisterTask("bmc")
	assert.Equal(t, 0, dd.GetActiveTaskCount())
}

func TestDeadlockDetectorTimeout(t *testing.T) {
	dd := NewDeadlockDetector(50*time.Millisecond, 25*time.Millisecond)
	defer dd.Shutdown()

	alerts := dd.GetAlerts()

	dd.RegisterTask("k-induction", "stalled k-induction task")

	select {
	case alert := <-alerts:
		assert.Equal(t, AlertTaskTimeout, alert.Type)
		assert.Equal(t, "k-induction", alert.TaskID)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected timeout alert but none received")
	}
}

// TestWorkerPoolRace exercises the pool the way the "both" mode
// orchestrator does: two tasks submitted concurrently, the first to finish
// recorded as the winner. Neither task is cancelled here.
func TestWorkerPoolRace(t *testing.T) {
	pool := NewWorkerPool(2, time.Second)
	defer pool.Shutdown()

	stats := pool.GetStats()
	require.NotNil(t, stats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	winner := make(chan string, 1)

	require.NoError(t, pool.Submit(ctx, "bmc", "bounded model checking task", func(context.Context) {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		select {
		case winner <- "bmc":
		default:
		}
	}))
	require.NoError(t, pool.Submit(ctx, "k-induction", "k-induction task", func(context.Context) {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		select {
		case winner <- "k-induction":
		default:
		}
	}))

	wg.Wait()
	assert.Equal(t, "bmc", <-winner)
}

// TestSubmitTaskRespectsDeadlockTimeout proves the wall-clock resource
// policy spec.md #5 describes: a task that outlives the pool's configured
// timeout has its context cancelled, even though the caller's own ctx is
// never cancelled.
func TestSubmitTaskRespectsDeadlockTimeout(t *testing.T) {
	pool := NewWorkerPool(1, 20*time.Millisecond)
	defer pool.Shutdown()

	done := make(chan error, 1)
	require.NoError(t, pool.Submit(context.Background(), "slow", "never-returning task", func(taskCtx context.Context) {
		<-taskCtx.Done()
		done <- taskCtx.Err()
	}))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("expected the task's context to be cancelled by the deadlock timeout")
	}
}

func TestWorkerPoolWithStats(t *testing.T) {
	pool := NewWorkerPool(4, time.Second)
	defer pool.Shutdown()

	stats := pool.GetStats()
	require.NotNil(t, stats)

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		task := func(context.Context) {
			defer wg.Done()
			time.Sleep(10 * time.Millisecond)
		}
		require.NoError(t, pool.Submit(ctx, "stats-task", "bulk task", task))
	}

	wg.Wait()
	pool.Shutdown()

	finalStats := stats.GetStats()
	assert.Equal(t, int64(5), finalStats.TasksSubmitted)
	assert.Equal(t, int64(5), finalStats.TasksCompleted)
}

func BenchmarkWorkerPool(b *testing.B) {
	pool := NewWorkerPool(4, time.Second)
	defer pool.Shutdown()

	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			task := func(context.Context) {
				time.Sleep(1 * time.Millisecond)
			}
			pool.Submit(ctx, "bench-task", "benchmark task", task)
		}
	})
}
