package workerpool_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majiddarvishan/wellformed/workerpool"
)

func TestMetricsAreRecorded(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := workerpool.NewThreadPoolMetrics(reg, "test")

	pool, err := workerpool.NewThreadPool(workerpool.Options{
		Name:       "metrics",
		NumWorkers: 3,
		Metrics:    metrics,
	})
	require.NoError(t, err)

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.WorkerCount.WithLabelValues("metrics")), 0)

	futures := make([]*workerpool.Future[int], 0, 6)
	for i := range 6 {
		f, err := workerpool.Submit(pool, func() (int, error) {
			switch i {
			case 0:
				return 0, errors.New("failed")
			case 1:
				panic("panicked")
			}
			return i, nil
		})
		require.NoError(t, err)
		futures = append(futures, f)
	}

	for _, f := range futures {
		_, _ = f.Get()
	}

	pool.Shutdown()
	require.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)

	assert.InDelta(t, 6, testutil.ToFloat64(metrics.TasksSubmitted.WithLabelValues("metrics")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(metrics.TasksCompleted.WithLabelValues("metrics", workerpool.StatusSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TasksCompleted.WithLabelValues("metrics", workerpool.StatusFailed)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TasksFailed.WithLabelValues("metrics")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TasksRejected.WithLabelValues("metrics")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.ActiveWorkers.WithLabelValues("metrics")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.WorkerCount.WithLabelValues("metrics")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.TaskDuration))
}

func TestMetricsAbandoned(t *testing.T) {
	t.Parallel()

	metrics := workerpool.NewThreadPoolMetrics(prometheus.NewRegistry(), "")

	pool, err := workerpool.NewThreadPool(workerpool.Options{Name: "abandon", NumWorkers: 1, Metrics: metrics})
	require.NoError(t, err)

	gate := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func() {
		close(started)
		<-gate
	}))
	<-started

	for range 3 {
		require.NoError(t, pool.Submit(func() {}))
	}

	done := make(chan struct{})
	go func() {
		pool.ShutdownNow()
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.TasksAbandoned.WithLabelValues("abandon")) == 3
	}, time.Second, time.Millisecond)

	close(gate)
	<-done
}

func TestWorkerGaugesSettleAtZero(t *testing.T) {
	t.Parallel()

	for round := range 20 {
		metrics := workerpool.NewThreadPoolMetrics(prometheus.NewRegistry(), "")

		pool, err := workerpool.NewThreadPool(workerpool.Options{Name: "gauges", NumWorkers: 32, Metrics: metrics})
		require.NoError(t, err)

		for range 2000 {
			require.NoError(t, pool.Submit(func() {}))
		}

		pool.Shutdown()

		require.InDelta(t, 0, testutil.ToFloat64(metrics.ActiveWorkers.WithLabelValues("gauges")), 0, "round %d", round)
		require.InDelta(t, 0, testutil.ToFloat64(metrics.WorkerCount.WithLabelValues("gauges")), 0, "round %d", round)
		require.Equal(t, 0, pool.ActiveWorkers(), "round %d", round)
	}
}

func TestRejectedSubmitIsNotCountedAsSubmitted(t *testing.T) {
	t.Parallel()

	metrics := workerpool.NewThreadPoolMetrics(prometheus.NewRegistry(), "")

	var submitted atomic.Int32
	pool, err := workerpool.NewThreadPool(workerpool.Options{
		Name:       "rejected",
		NumWorkers: 1,
		Metrics:    metrics,
		Hooks:      workerpool.Hooks{OnSubmit: func() { submitted.Add(1) }},
	})
	require.NoError(t, err)

	require.NoError(t, pool.Submit(func() {}))
	pool.Shutdown()

	require.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	_, err = workerpool.SubmitValue(pool, func() int { return 1 })
	require.ErrorIs(t, err, workerpool.ErrPoolClosed)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TasksSubmitted.WithLabelValues("rejected")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TasksRejected.WithLabelValues("rejected")), 0)
	assert.Equal(t, int32(1), submitted.Load())
}
