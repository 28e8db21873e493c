// Package monitor tracks completion progress of a batch and triggers periodic memory reclamation.
package monitor

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

// Options for Monitor
type Options struct {
	GCInterval        int     // collect every N completions, 0 disables periodic collection
	MemoryThresholdMB float64 // collect when heap in use reaches threshold, 0 disables the check
}

// Monitor counts completed units of work. StepCompleted is safe for concurrent use.
type Monitor struct {
	total   int
	label   string
	opts    Options
	started time.Time

	memUsage func() float64 // heap in use, MB
	collect  func()

	mu        sync.Mutex
	completed int
	gcRuns    int
}

// New makes a monitor for total units, total below 1 is treated as 1
func New(total int, label string, opts Options) *Monitor {
	if total < 1 {
		total = 1
	}
	return &Monitor{
		total:    total,
		label:    label,
		opts:     opts,
		started:  time.Now(),
		memUsage: heapInUseMB,
		collect:  freeMemory,
	}
}

// StepCompleted records one finished unit and logs progress.
// It runs a gc hint every GCInterval steps or when memory reaches the threshold.
func (m *Monitor) StepCompleted(detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completed++
	elapsed := time.Since(m.started)
	mem := m.memUsage()

	suffix := ""
	if detail != "" {
		suffix = " | " + detail
	}
	lgr.Printf("[INFO] %s: %d/%d%s | memory: %.1fMB | time: %.1fs", m.label, m.completed, m.total, suffix, mem, elapsed.Seconds())

	shouldCollect := m.opts.GCInterval > 0 && m.completed%m.opts.GCInterval == 0
	if m.opts.MemoryThresholdMB > 0 && mem >= m.opts.MemoryThresholdMB {
		lgr.Printf("[DEBUG] %s: memory %.1fMB exceeded threshold %.1fMB, running gc", m.label, mem, m.opts.MemoryThresholdMB)
		shouldCollect = true
	}
	if shouldCollect {
		m.gcRuns++
		m.collect()
	}
}

// Completed returns number of completed steps
func (m *Monitor) Completed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

// Total returns expected number of steps
func (m *Monitor) Total() int { return m.total }

// GCRuns returns how many times memory reclamation was triggered
func (m *Monitor) GCRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gcRuns
}

func heapInUseMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapInuse) / 1024 / 1024
}

func freeMemory() {
	runtime.GC()
	debug.FreeOSMemory()
}
