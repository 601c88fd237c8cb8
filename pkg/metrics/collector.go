// Package metrics exports line and poll counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	linesCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linetail_lines_collected_total",
			Help: "Total number of lines appended to the shared buffer",
		},
		[]string{"source"},
	)

	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linetail_polls_total",
			Help: "Total number of completed polls by outcome",
		},
		[]string{"outcome"},
	)

	batchLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linetail_batch_lines",
			Help:    "Number of lines per returned batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	collectorUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linetail_collector_up",
			Help: "1 while the background collector is running",
		},
	)

	watchedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linetail_watched_files",
			Help: "Number of files registered for watching",
		},
	)
)

// Recorder receives pipeline events
type Recorder interface {
	LineCollected(source string)
	PollCompleted(outcome string, lines int)
	CollectorUp(up bool)
	FilesWatched(n int)
}

// Collector records to the process-wide Prometheus registry
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// LineCollected counts one buffered line
func (c *Collector) LineCollected(source string) {
	linesCollected.WithLabelValues(source).Inc()
}

// PollCompleted counts one poll and, for batches, observes its size
func (c *Collector) PollCompleted(outcome string, lines int) {
	pollsTotal.WithLabelValues(outcome).Inc()
	if lines > 0 {
		batchLines.Observe(float64(lines))
	}
}

// CollectorUp sets the collector liveness gauge
func (c *Collector) CollectorUp(up bool) {
	if up {
		collectorUp.Set(1)
		return
	}
	collectorUp.Set(0)
}

// FilesWatched sets the watched file gauge
func (c *Collector) FilesWatched(n int) {
	watchedFiles.Set(float64(n))
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Discard drops every event
type Discard struct{}

func (Discard) LineCollected(string)      {}
func (Discard) PollCompleted(string, int) {}
func (Discard) CollectorUp(bool)          {}
func (Discard) FilesWatched(int)          {}
