package workerpool

import (
	"io"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/majiddarvishan/wellformed/internal/errors"
)

const (
	DefaultName            = "default"
	DefaultMonitorInterval = time.Second
)

// Hooks let you observe pool lifecycle events. OnSubmit runs on the
// submitting goroutine once the task is queued; OnStart, OnFinish and OnError
// run on the worker goroutine executing the task. A panicking hook is logged
// and does not affect the task or its future.
type Hooks struct {
	OnSubmit func()
	OnStart  func()
	OnFinish func(err error)
	OnError  func(err error)
}

// Options configure the pool.
type Options struct {
	// Name labels metrics and log entries.
	Name string
	// NumWorkers is fixed for the lifetime of the pool. Zero means one worker
	// per hardware execution context.
	NumWorkers int
	// DrainOnShutdown makes Shutdown run every queued task before the
	// workers exit. Otherwise queued tasks are abandoned and their futures
	// fail with ErrPoolClosed.
	DrainOnShutdown bool
	// WorkerInit runs on each worker goroutine before it takes work. An error
	// from any worker aborts pool construction.
	WorkerInit func(id int) error

	Hooks   Hooks
	Logger  logrus.FieldLogger
	Metrics *ThreadPoolMetrics

	// MonitorInterval is how often the queue size gauge is refreshed.
	MonitorInterval time.Duration
}

// Validate reports configuration errors.
func (o Options) Validate() error {
	if o.NumWorkers < 0 {
		return errors.Errorf("invalid worker count %d", o.NumWorkers)
	}

	if o.MonitorInterval < 0 {
		return errors.Errorf("invalid monitor interval %s", o.MonitorInterval)
	}

	return nil
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultName
	}

	if o.NumWorkers == 0 {
		o.NumWorkers = max(runtime.NumCPU(), 1)
	}

	if o.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		o.Logger = logger
	}

	if o.MonitorInterval == 0 {
		o.MonitorInterval = DefaultMonitorInterval
	}

	return o
}
