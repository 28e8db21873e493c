// Package scheduler runs pipelines in background, one at a time, on demand and by schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/maildigest/pkg/domain"
)

//go:generate moq -out mocks/pipeline.go -pkg mocks -skip-ensure -fmt goimports . Pipeline
//go:generate moq -out mocks/run_store.go -pkg mocks -skip-ensure -fmt goimports . RunStore
//go:generate moq -out mocks/publisher.go -pkg mocks -skip-ensure -fmt goimports . Publisher
//go:generate moq -out mocks/observer.go -pkg mocks -skip-ensure -fmt goimports . Observer

// TriggerSchedule is the trigger name of runs started by the interval ticker
const TriggerSchedule = "schedule"

// Pipeline runs the whole digest batch
type Pipeline interface {
	Run(ctx context.Context, trigger string) domain.RunResult
}

// RunStore keeps finished runs
type RunStore interface {
	SaveRun(ctx context.Context, res domain.RunResult) error
}

// Publisher announces finished runs
type Publisher interface {
	Publish(ctx context.Context, res domain.RunResult) error
}

// Observer collects run metrics
type Observer interface {
	RunStarted()
	ObserveRun(res domain.RunResult)
}

// Params holds runner collaborators, all but Pipeline optional
type Params struct {
	Pipeline  Pipeline
	Store     RunStore
	Publisher Publisher
	Observer  Observer
	Interval  time.Duration // zero disables periodic runs
}

// Status reports runner state
type Status struct {
	Running   bool              `json:"running"`
	Pending   bool              `json:"pending"`
	Completed int               `json:"completed"`
	Interval  string            `json:"interval,omitempty"`
	LastRun   *domain.RunResult `json:"last_run,omitempty"`
}

// Runner executes pipeline runs on a single background worker.
// Triggers received while a run is already queued are merged into it.
type Runner struct {
	params   Params
	triggers chan string
	wg       sync.WaitGroup
	cancel   context.CancelFunc

	mu        sync.Mutex
	running   bool
	completed int
	last      *domain.RunResult
}

// NewRunner makes runner, Start should be called to process triggers
func NewRunner(p Params) *Runner {
	return &Runner{params: p, triggers: make(chan string, 1)}
}

// Start begins the background worker
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.worker(ctx)
	if r.params.Interval > 0 {
		lgr.Printf("[INFO] runner started, scheduled every %v", r.params.Interval)
		return
	}
	lgr.Printf("[INFO] runner started, on demand only")
}

// Stop cancels the current run and waits for the worker to exit
func (r *Runner) Stop() {
	lgr.Printf("[INFO] stopping runner...")
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	lgr.Printf("[INFO] runner stopped")
}

// Trigger queues a run. Returns false if a run is already queued and this trigger was merged into it.
func (r *Runner) Trigger(source string) bool {
	select {
	case r.triggers <- source:
		lgr.Printf("[INFO] run queued, trigger %q", source)
		return true
	default:
		lgr.Printf("[DEBUG] run already queued, trigger %q merged", source)
		return false
	}
}

// RunOnce executes pipeline synchronously in the caller's goroutine
func (r *Runner) RunOnce(ctx context.Context, source string) domain.RunResult {
	return r.execute(ctx, source)
}

// Status returns current runner state
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{Running: r.running, Pending: len(r.triggers) > 0, Completed: r.completed}
	if r.params.Interval > 0 {
		st.Interval = r.params.Interval.String()
	}
	if r.last != nil {
		last := *r.last
		st.LastRun = &last
	}
	return st
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()

	var tick <-chan time.Time
	if r.params.Interval > 0 {
		ticker := time.NewTicker(r.params.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case source := <-r.triggers:
			r.execute(ctx, source)
		case <-tick:
			r.execute(ctx, TriggerSchedule)
		}
	}
}

// execute runs pipeline and hands the result to store, publisher and observer
func (r *Runner) execute(ctx context.Context, source string) domain.RunResult {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	if r.params.Observer != nil {
		r.params.Observer.RunStarted()
	}

	res := r.params.Pipeline.Run(ctx, source)

	r.mu.Lock()
	r.running = false
	r.completed++
	r.last = &res
	r.mu.Unlock()

	// results are kept even if the run was canceled
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if r.params.Store != nil {
		if err := r.params.Store.SaveRun(saveCtx, res); err != nil {
			lgr.Printf("[WARN] failed to save run %s: %v", res.ID, err)
		}
	}
	if r.params.Publisher != nil {
		if err := r.params.Publisher.Publish(saveCtx, res); err != nil {
			lgr.Printf("[WARN] failed to publish run %s: %v", res.ID, err)
		}
	}
	if r.params.Observer != nil {
		r.params.Observer.ObserveRun(res)
	}
	return res
}
