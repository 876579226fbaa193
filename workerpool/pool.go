package workerpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/majiddarvishan/wellformed/internal/errors"
)

var (
	// ErrPoolClosed is returned by Submit once shutdown has begun, and is the
	// error of every future whose task was abandoned at shutdown.
	ErrPoolClosed = errors.New("pool not accepting work")
	// ErrWorkerStart wraps worker initialisation failures from NewThreadPool.
	ErrWorkerStart = errors.New("worker failed to start")
)

// State is the lifecycle state of a ThreadPool.
type State uint32

const (
	StateConstructed State = iota
	StateRunning
	StateShuttingDown
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateJoined:
		return "joined"
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

// Task represents a unit of work
type Task func()

// job is a queue entry: the work and the completion slot it reports to.
// finish is called exactly once, with the outcome of run or with
// ErrPoolClosed if run never happens.
type job struct {
	run    func() error
	finish func(err error)
}

// ThreadPool runs tasks on a fixed set of worker goroutines sharing one
// unbounded queue.
type ThreadPool struct {
	name    string
	workers int
	opts    Options
	log     logrus.FieldLogger
	metrics *ThreadPoolMetrics

	queue *Queue[*job]
	wg    sync.WaitGroup
	quit  chan struct{}
	once  sync.Once

	state atomic.Uint32

	// counts change together with their gauges so the last Set wins
	countsMu    sync.Mutex
	activeCount int
	liveWorkers int
}

// NewThreadPool starts opts.NumWorkers workers and returns once all of them
// are ready to take work. If any worker fails to initialise, the pool is torn
// down and the failures are returned.
func NewThreadPool(opts Options) (*ThreadPool, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()

	tp := &ThreadPool{
		name:    opts.Name,
		workers: opts.NumWorkers,
		opts:    opts,
		log:     opts.Logger.WithField("pool", opts.Name),
		metrics: opts.Metrics,
		queue:   NewQueue[*job](),
		quit:    make(chan struct{}),
	}

	if tp.metrics != nil {
		tp.metrics.SetWorkerCount(tp.name, 0)
		tp.metrics.SetQueueSize(tp.name, 0)
		tp.metrics.SetActiveWorkers(tp.name, 0)
	}

	started := make(chan error, tp.workers)

	tp.wg.Add(tp.workers)
	for i := 0; i < tp.workers; i++ {
		go tp.worker(i, started)
	}

	var startErrs []error
	for i := 0; i < tp.workers; i++ {
		if err := <-started; err != nil {
			startErrs = append(startErrs, err)
		}
	}

	if len(startErrs) > 0 {
		tp.state.Store(uint32(StateShuttingDown))
		tp.queue.Close()
		tp.wg.Wait()
		close(tp.quit)
		tp.state.Store(uint32(StateJoined))

		tp.log.WithField("failures", len(startErrs)).Debug("Pool construction aborted")

		return nil, errors.Join(append([]error{ErrWorkerStart}, startErrs...)...)
	}

	tp.state.Store(uint32(StateRunning))

	if tp.metrics != nil {
		go tp.monitorQueueSize()
	}

	tp.log.WithField("workers", tp.workers).Debug("Pool running")

	return tp, nil
}

// worker is the goroutine that processes tasks
func (tp *ThreadPool) worker(id int, started chan<- error) {
	defer tp.wg.Done()

	if tp.opts.WorkerInit != nil {
		var err error
		func() {
			defer errors.Recover(func(cause error) { err = cause })
			err = tp.opts.WorkerInit(id)
		}()

		if err != nil {
			started <- fmt.Errorf("worker %d: %w", id, err)
			return
		}
	}

	tp.setLiveWorkers(1)
	defer tp.setLiveWorkers(-1)

	started <- nil

	for {
		j, ok := tp.queue.WaitAndPop()
		if !ok {
			return
		}

		tp.execute(j)
	}
}

// execute runs one job, keeping a panic or error inside the job's own
// completion slot.
func (tp *ThreadPool) execute(j *job) {
	tp.setActiveWorkers(1)
	defer tp.setActiveWorkers(-1)

	var err error
	defer func() { j.finish(err) }()

	if tp.opts.Hooks.OnStart != nil {
		tp.runHook("OnStart", tp.opts.Hooks.OnStart)
	}

	start := time.Now()

	func() {
		defer errors.Recover(func(cause error) {
			err = cause
			tp.log.WithError(cause).Errorf("Task panicked: %s", errors.ErrorWithStackTrace(cause))
		})

		err = j.run()
	}()

	if tp.metrics != nil {
		tp.metrics.ObserveTaskDuration(tp.name, time.Since(start).Seconds())

		if err != nil {
			tp.metrics.RecordTaskFailed(tp.name)
			tp.metrics.RecordTaskCompleted(tp.name, StatusFailed)
		} else {
			tp.metrics.RecordTaskCompleted(tp.name, StatusSuccess)
		}
	}

	if err != nil && tp.opts.Hooks.OnError != nil {
		tp.runHook("OnError", func() { tp.opts.Hooks.OnError(err) })
	}

	if tp.opts.Hooks.OnFinish != nil {
		tp.runHook("OnFinish", func() { tp.opts.Hooks.OnFinish(err) })
	}
}

func (tp *ThreadPool) abandon(j *job) {
	if tp.metrics != nil {
		tp.metrics.RecordTaskAbandoned(tp.name)
	}

	j.finish(ErrPoolClosed)
}

func (tp *ThreadPool) setActiveWorkers(delta int) {
	tp.countsMu.Lock()
	defer tp.countsMu.Unlock()

	tp.activeCount += delta
	if tp.metrics != nil {
		tp.metrics.SetActiveWorkers(tp.name, tp.activeCount)
	}
}

func (tp *ThreadPool) setLiveWorkers(delta int) {
	tp.countsMu.Lock()
	defer tp.countsMu.Unlock()

	tp.liveWorkers += delta
	if tp.metrics != nil {
		tp.metrics.SetWorkerCount(tp.name, tp.liveWorkers)
	}
}

// runHook calls a user hook on the worker goroutine. A panicking hook is
// logged and otherwise ignored.
func (tp *ThreadPool) runHook(name string, hook func()) {
	defer errors.Recover(func(cause error) {
		tp.log.WithError(cause).WithField("hook", name).Errorf("Hook panicked: %s", errors.ErrorWithStackTrace(cause))
	})

	hook()
}

// monitorQueueSize monitors and reports queue size
func (tp *ThreadPool) monitorQueueSize() {
	ticker := time.NewTicker(tp.opts.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tp.metrics.SetQueueSize(tp.name, tp.queue.Len())
		case <-tp.quit:
			tp.metrics.SetQueueSize(tp.name, tp.queue.Len())
			return
		}
	}
}

// Submit queues a task that has no result. It never blocks; once shutdown
// has begun it returns ErrPoolClosed.
func (tp *ThreadPool) Submit(task Task) error {
	return tp.enqueue(&job{
		run: func() error {
			task()
			return nil
		},
		finish: func(error) {},
	})
}

func (tp *ThreadPool) enqueue(j *job) error {
	if tp.State() != StateRunning {
		tp.reject()
		return ErrPoolClosed
	}

	if err := tp.queue.Push(j); err != nil {
		tp.reject()
		return ErrPoolClosed
	}

	if tp.metrics != nil {
		tp.metrics.RecordTaskSubmitted(tp.name)
	}

	if tp.opts.Hooks.OnSubmit != nil {
		tp.runHook("OnSubmit", tp.opts.Hooks.OnSubmit)
	}

	return nil
}

func (tp *ThreadPool) reject() {
	if tp.metrics != nil {
		tp.metrics.RecordTaskRejected(tp.name)
	}
}

// Shutdown stops accepting work and blocks until every worker has exited.
// Queued tasks run first when DrainOnShutdown is set; otherwise they are
// abandoned. Only the first call has an effect; later calls wait for it.
func (tp *ThreadPool) Shutdown() {
	tp.stop(tp.opts.DrainOnShutdown)
}

// ShutdownNow is Shutdown that always abandons queued tasks. Tasks already
// running are waited for.
func (tp *ThreadPool) ShutdownNow() {
	tp.stop(false)
}

func (tp *ThreadPool) stop(drain bool) {
	tp.once.Do(func() {
		tp.state.Store(uint32(StateShuttingDown))

		var abandoned []*job
		if drain {
			tp.queue.Close()
		} else {
			abandoned = tp.queue.Abort()
		}

		for _, j := range abandoned {
			tp.abandon(j)
		}

		tp.wg.Wait()
		close(tp.quit)
		tp.state.Store(uint32(StateJoined))

		tp.log.WithFields(logrus.Fields{
			"drained":   drain,
			"abandoned": len(abandoned),
		}).Debug("Pool joined")
	})
}

// Name returns the pool name used for metrics and logging.
func (tp *ThreadPool) Name() string {
	return tp.name
}

// Workers returns the fixed number of workers.
func (tp *ThreadPool) Workers() int {
	return tp.workers
}

// State returns the current lifecycle state.
func (tp *ThreadPool) State() State {
	return State(tp.state.Load())
}

// QueueLen returns the number of tasks waiting for a worker.
func (tp *ThreadPool) QueueLen() int {
	return tp.queue.Len()
}

// ActiveWorkers returns the number of workers currently executing a task.
func (tp *ThreadPool) ActiveWorkers() int {
	tp.countsMu.Lock()
	defer tp.countsMu.Unlock()

	return tp.activeCount
}
