package monitor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_ConcurrentSteps(t *testing.T) {
	m := New(200, "test", Options{})
	m.memUsage = func() float64 { return 1 }
	m.collect = func() {}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.StepCompleted("unit")
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, m.Completed())
	assert.Equal(t, 200, m.Total())
}

func TestMonitor_GCInterval(t *testing.T) {
	m := New(20, "test", Options{GCInterval: 8})
	m.memUsage = func() float64 { return 10 }
	collected := 0
	m.collect = func() { collected++ }

	for i := 0; i < 20; i++ {
		m.StepCompleted("")
	}
	assert.Equal(t, 2, collected, "collect at steps 8 and 16")
	assert.Equal(t, 2, m.GCRuns())
}

func TestMonitor_MemoryThreshold(t *testing.T) {
	m := New(3, "test", Options{GCInterval: 100, MemoryThresholdMB: 768})
	usage := []float64{100, 800, 200}
	step := 0
	m.memUsage = func() float64 { v := usage[step]; step++; return v }
	collected := 0
	m.collect = func() { collected++ }

	m.StepCompleted("a")
	m.StepCompleted("b")
	m.StepCompleted("c")
	assert.Equal(t, 1, collected)
}

func TestNew_ZeroTotal(t *testing.T) {
	m := New(0, "empty", Options{})
	assert.Equal(t, 1, m.Total())
	assert.Equal(t, 0, m.Completed())
}
