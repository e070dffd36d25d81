package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load sources.
const (
	SourceFile        = "file"
	SourceDescription = "description"
	SourceBytes       = "bytes"
	SourceClone       = "clone"
)

// Handle kinds.
const (
	KindModel = "model"
	KindState = "state"
	KindVFS   = "vfs"
)

// Metrics holds the runtime collectors.
type Metrics struct {
	modelsLoaded    *prometheus.CounterVec // By source and status (success/failure)
	steps           prometheus.Counter
	stepDuration    prometheus.Histogram
	serializedBytes prometheus.Histogram
	vfsFiles        prometheus.Gauge
	liveHandles     *prometheus.GaugeVec // By kind
}

// New creates unregistered collectors under namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		modelsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "models_loaded_total",
			Help:      "Total number of model load attempts",
		}, []string{"source", "status"}),

		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "steps_total",
			Help:      "Total number of simulation steps",
		}),

		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "step_duration_seconds",
			Help:      "Simulation step duration in seconds",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		serializedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "serialized_bytes",
			Help:      "Size of serialized models in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),

		vfsFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "vfs_files",
			Help:      "Occupied virtual file table slots",
		}),

		liveHandles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "live_handles",
			Help:      "Native objects allocated and not yet released",
		}, []string{"kind"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.modelsLoaded,
		m.steps,
		m.stepDuration,
		m.serializedBytes,
		m.vfsFiles,
		m.liveHandles,
	}
}

// ObserveLoad records a load attempt from source.
func (m *Metrics) ObserveLoad(source string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.modelsLoaded.WithLabelValues(source, status).Inc()
}

// ObserveStep records one step that took d.
func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.steps.Inc()
	m.stepDuration.Observe(d.Seconds())
}

// ObserveSerialized records the size of a serialized model.
func (m *Metrics) ObserveSerialized(n int) {
	if m != nil {
		m.serializedBytes.Observe(float64(n))
	}
}

// AddVFSFiles adjusts the occupied slot gauge by delta.
func (m *Metrics) AddVFSFiles(delta int) {
	if m != nil {
		m.vfsFiles.Add(float64(delta))
	}
}

// HandleOpened counts a native object of kind as live.
func (m *Metrics) HandleOpened(kind string) {
	if m != nil {
		m.liveHandles.WithLabelValues(kind).Inc()
	}
}

// HandleClosed counts a native object of kind as released.
func (m *Metrics) HandleClosed(kind string) {
	if m != nil {
		m.liveHandles.WithLabelValues(kind).Dec()
	}
}
