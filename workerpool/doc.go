// Package workerpool provides a fixed-size pool of worker goroutines that
// execute opaque tasks from a shared unbounded FIFO queue, with futures for
// results, panic isolation per task, lifecycle hooks, logrus logging and
// Prometheus metrics.
//
// Typical usage:
//
//	reg := prometheus.NewRegistry()
//	pool, err := workerpool.NewThreadPool(workerpool.Options{
//		Name:            "squares",
//		DrainOnShutdown: true,
//		Metrics:         workerpool.NewThreadPoolMetrics(reg, "myapp"),
//	})
//	if err != nil {
//		return err
//	}
//	defer pool.Shutdown()
//
//	futures := make([]*workerpool.Future[int], 10)
//	for i := range futures {
//		n := i
//		futures[i], err = workerpool.SubmitValue(pool, func() int { return n * n })
//		if err != nil {
//			return err
//		}
//	}
//
//	for _, f := range futures {
//		v, err := f.Get()
//		...
//	}
//
// The pool is never resized. Always call Shutdown, usually deferred: it is
// the only way the worker goroutines exit.
package workerpool
