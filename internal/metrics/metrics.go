package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// ImagesTotal counts finished images by terminal outcome
	// (accepted, ai, fallback, failed, cached).
	ImagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winelabel",
		Subsystem: "pipeline",
		Name:      "images_total",
		Help:      "Images processed, labeled by outcome.",
	}, []string{"outcome"})

	// EscalationsTotal counts language model escalations by result.
	EscalationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winelabel",
		Subsystem: "pipeline",
		Name:      "escalations_total",
		Help:      "Escalations to the language model, labeled by result (ok, error).",
	}, []string{"result"})

	StageDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "winelabel",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Time spent per stage (recognize, parse, escalate).",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stage"})

	LocalConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "winelabel",
		Subsystem: "parser",
		Name:      "local_confidence",
		Help:      "Confidence scores produced by the local parser.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "winelabel",
		Subsystem: "pipeline",
		Name:      "in_flight_images",
		Help:      "Images currently being processed.",
	})
)

// Register registers pipeline metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ImagesTotal,
			EscalationsTotal,
			StageDurationSeconds,
			LocalConfidence,
			InFlight,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
