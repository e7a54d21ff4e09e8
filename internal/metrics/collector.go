package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector provides simple built-in metrics collection with no external dependencies.
// A nil *Collector is valid; every method is a no-op on it.
type Collector struct {
	injectionMetrics *InjectionMetrics
	namedCounters    map[string]*int64
	mu               sync.RWMutex
	startTime        time.Time
}

// InjectionMetrics tracks injector and extractor activity
type InjectionMetrics struct {
	// Template injection
	Injections    int64 `json:"injections"`
	SlotsRendered int64 `json:"slots_rendered"`
	AttrSplices   int64 `json:"attr_splices"`
	MissingPaths  int64 `json:"missing_paths"`

	// Skeleton extraction
	Extractions      int64 `json:"extractions"`
	ExtractionErrors int64 `json:"extraction_errors"`
	DiffOps          int64 `json:"diff_ops"`
	MaxVariantCount  int64 `json:"max_variant_count"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		injectionMetrics: &InjectionMetrics{
			StartTime: now,
		},
		namedCounters: make(map[string]*int64),
		startTime:     now,
	}
}

// IncrementInjection records one Inject call
func (c *Collector) IncrementInjection() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.injectionMetrics.Injections, 1)
}

// IncrementSlotRendered records one rendered slot directive
func (c *Collector) IncrementSlotRendered() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.injectionMetrics.SlotsRendered, 1)
}

// IncrementAttrSplice records one start tag rewritten by the splicer
func (c *Collector) IncrementAttrSplice() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.injectionMetrics.AttrSplices, 1)
}

// IncrementMissingPath records a directive whose path was absent from the data
func (c *Collector) IncrementMissingPath() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.injectionMetrics.MissingPaths, 1)
}

// IncrementExtraction records one completed skeleton extraction
func (c *Collector) IncrementExtraction() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.injectionMetrics.Extractions, 1)
}

// IncrementExtractionError records an extraction that failed with a diagnostic
func (c *Collector) IncrementExtractionError() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.injectionMetrics.ExtractionErrors, 1)
}

// AddDiffOps accumulates the number of edit operations produced by tree diffs
func (c *Collector) AddDiffOps(n int64) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.injectionMetrics.DiffOps, n)
}

// RecordVariantCount tracks the largest variant set seen by an extraction
func (c *Collector) RecordVariantCount(n int64) {
	if c == nil {
		return
	}
	for {
		max := atomic.LoadInt64(&c.injectionMetrics.MaxVariantCount)
		if n <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.injectionMetrics.MaxVariantCount, max, n) {
			break
		}
	}
}

// IncrementNamedCounter increments a custom named counter
func (c *Collector) IncrementNamedCounter(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.namedCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.namedCounters[name] = &newCounter
	}
}

// GetMetrics returns a copy of the current metrics
func (c *Collector) GetMetrics() InjectionMetrics {
	if c == nil {
		return InjectionMetrics{}
	}
	return InjectionMetrics{
		Injections:       atomic.LoadInt64(&c.injectionMetrics.Injections),
		SlotsRendered:    atomic.LoadInt64(&c.injectionMetrics.SlotsRendered),
		AttrSplices:      atomic.LoadInt64(&c.injectionMetrics.AttrSplices),
		MissingPaths:     atomic.LoadInt64(&c.injectionMetrics.MissingPaths),
		Extractions:      atomic.LoadInt64(&c.injectionMetrics.Extractions),
		ExtractionErrors: atomic.LoadInt64(&c.injectionMetrics.ExtractionErrors),
		DiffOps:          atomic.LoadInt64(&c.injectionMetrics.DiffOps),
		MaxVariantCount:  atomic.LoadInt64(&c.injectionMetrics.MaxVariantCount),
		StartTime:        c.injectionMetrics.StartTime,
		Uptime:           time.Since(c.startTime),
	}
}

// GetNamedCounters returns all custom counters
func (c *Collector) GetNamedCounters() map[string]int64 {
	if c == nil {
		return map[string]int64{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64)
	for name, counter := range c.namedCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.StoreInt64(&c.injectionMetrics.Injections, 0)
	atomic.StoreInt64(&c.injectionMetrics.SlotsRendered, 0)
	atomic.StoreInt64(&c.injectionMetrics.AttrSplices, 0)
	atomic.StoreInt64(&c.injectionMetrics.MissingPaths, 0)
	atomic.StoreInt64(&c.injectionMetrics.Extractions, 0)
	atomic.StoreInt64(&c.injectionMetrics.ExtractionErrors, 0)
	atomic.StoreInt64(&c.injectionMetrics.DiffOps, 0)
	atomic.StoreInt64(&c.injectionMetrics.MaxVariantCount, 0)

	c.namedCounters = make(map[string]*int64)

	now := time.Now()
	c.startTime = now
	c.injectionMetrics.StartTime = now
}

// GetExtractionErrorRate returns the percentage of extractions that failed
func (c *Collector) GetExtractionErrorRate() float64 {
	if c == nil {
		return 0.0
	}
	ok := atomic.LoadInt64(&c.injectionMetrics.Extractions)
	errs := atomic.LoadInt64(&c.injectionMetrics.ExtractionErrors)

	total := ok + errs
	if total == 0 {
		return 0.0
	}
	return float64(errs) / float64(total) * 100.0
}

// GetMissingPathRate returns missing-path lookups per rendered slot
func (c *Collector) GetMissingPathRate() float64 {
	if c == nil {
		return 0.0
	}
	slots := atomic.LoadInt64(&c.injectionMetrics.SlotsRendered)
	missing := atomic.LoadInt64(&c.injectionMetrics.MissingPaths)

	if slots == 0 {
		return 0.0
	}
	return float64(missing) / float64(slots)
}
