package seam

import "github.com/canmi21/seam/internal/metrics"

// Collector aggregates counters across Inject and ExtractTemplate
// calls. Pass one in with WithCollector to observe a shared instance;
// a nil collector disables collection.
type Collector = metrics.Collector

// Metrics is a point-in-time snapshot taken by Collector.GetMetrics.
type Metrics = metrics.InjectionMetrics

// NewCollector creates a collector for use with WithCollector.
func NewCollector() *Collector {
	return metrics.NewCollector()
}
