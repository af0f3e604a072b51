package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scribe_active_sessions",
		Help: "Number of sessions currently held by the registry",
	})

	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribe_sessions_started_total",
		Help: "Total number of sessions started",
	})

	sessionsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_sessions_finalized_total",
		Help: "Total number of finalized sessions by outcome",
	}, []string{"outcome"})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scribe_session_duration_seconds",
		Help:    "Recorded session length in seconds",
		Buckets: []float64{10, 30, 60, 300, 900, 1800, 3600, 7200},
	})

	fragmentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribe_fragments_ingested_total",
		Help: "Total number of fragments appended to a transcript",
	})

	fragmentsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_fragments_dropped_total",
		Help: "Total number of dropped fragments by reason",
	}, []string{"reason"})

	transcriptionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_transcription_latency_seconds",
		Help:    "Transcription collaborator latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"status"})

	summarizationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_summarization_latency_seconds",
		Help:    "Summarization collaborator latency in seconds",
		Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
	}, []string{"status"})
)

func SessionStarted() {
	sessionsStarted.Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func SessionFinalized(outcome string, duration time.Duration) {
	sessionsFinalized.WithLabelValues(outcome).Inc()
	sessionDuration.Observe(duration.Seconds())
}

func FragmentIngested() {
	fragmentsIngested.Inc()
}

func FragmentDropped(reason string) {
	fragmentsDropped.WithLabelValues(reason).Inc()
}

func ObserveTranscription(d time.Duration, ok bool) {
	transcriptionLatency.WithLabelValues(statusLabel(ok)).Observe(d.Seconds())
}

func ObserveSummarization(d time.Duration, ok bool) {
	summarizationLatency.WithLabelValues(statusLabel(ok)).Observe(d.Seconds())
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
