package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend API metrics
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_client_api_requests_total",
		Help: "Total number of backend API requests",
	}, []string{"endpoint", "status"}) // status: "ok", HTTP code, or "error"

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_client_api_latency_seconds",
		Help:    "Backend API request latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0, 60.0},
	}, []string{"endpoint"})

	// Audio submission metrics
	transcribeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_client_transcribe_fallbacks_total",
		Help: "Total number of transcriptions that fell back to full processing",
	})

	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_client_validation_failures_total",
		Help: "Total number of audio payloads rejected before upload",
	}, []string{"reason"})

	// Recording metrics
	recordingsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_client_recordings_total",
		Help: "Total number of recording sessions started",
	})

	recordingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_client_recording_duration_seconds",
		Help:    "Duration of recording sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})

	audioBytesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_client_audio_bytes_total",
		Help: "Total audio bytes captured from the input device",
	})

	// Chat metrics
	cannedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_client_canned_responses_total",
		Help: "Total number of locally generated responses shown after a chat failure",
	})
)

// RecordAPIRequest records one backend API request with its outcome and latency
func RecordAPIRequest(endpoint, status string, duration time.Duration) {
	apiRequests.WithLabelValues(endpoint, status).Inc()
	apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordFallback records a transcription failure that triggered the processing fallback
func RecordFallback() {
	transcribeFallbacks.Inc()
}

// RecordValidationFailure records a payload rejected by client-side validation
func RecordValidationFailure(reason string) {
	validationFailures.WithLabelValues(reason).Inc()
}

// RecordRecordingStart records the start of a recording session
func RecordRecordingStart() {
	recordingsStarted.Inc()
}

// RecordRecordingEnd records the end of a recording session
func RecordRecordingEnd(seconds int) {
	recordingDuration.Observe(float64(seconds))
}

// RecordAudioBytes records audio bytes captured from the input device
func RecordAudioBytes(n int) {
	audioBytesCaptured.Add(float64(n))
}

// RecordCannedResponse records a degraded-mode locally generated chat response
func RecordCannedResponse() {
	cannedResponses.Inc()
}
