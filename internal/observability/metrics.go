package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds tracker collectors, all labelled by stream name.
type Metrics struct {
	FramesProcessed  *prometheus.CounterVec
	Detections       *prometheus.CounterVec
	TracksRegistered *prometheus.CounterVec
	TracksEvicted    *prometheus.CounterVec
	LiveTracks       *prometheus.GaugeVec
	UpdateDuration   *prometheus.HistogramVec
}

// NewMetrics creates collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mot",
			Name:      "frames_processed_total",
			Help:      "Total number of frames passed through the tracker",
		}, []string{"stream"}),

		Detections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mot",
			Name:      "detections_total",
			Help:      "Total number of bounding boxes passed to the tracker",
		}, []string{"stream"}),

		TracksRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mot",
			Name:      "tracks_registered_total",
			Help:      "Total number of tracks created",
		}, []string{"stream"}),

		TracksEvicted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mot",
			Name:      "tracks_evicted_total",
			Help:      "Total number of tracks removed after disappearing for too long",
		}, []string{"stream"}),

		LiveTracks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mot",
			Name:      "live_tracks",
			Help:      "Number of currently live tracks",
		}, []string{"stream"}),

		UpdateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mot",
			Name:      "update_duration_seconds",
			Help:      "Duration of a single tracker update",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"stream"}),
	}
}

// ObserveFrame records one processed frame.
func (m *Metrics) ObserveFrame(stream string, detections int, live int, took time.Duration) {
	m.FramesProcessed.WithLabelValues(stream).Inc()
	m.Detections.WithLabelValues(stream).Add(float64(detections))
	m.LiveTracks.WithLabelValues(stream).Set(float64(live))
	m.UpdateDuration.WithLabelValues(stream).Observe(took.Seconds())
}

func (m *Metrics) TrackRegistered(stream string) {
	m.TracksRegistered.WithLabelValues(stream).Inc()
}

func (m *Metrics) TrackEvicted(stream string) {
	m.TracksEvicted.WithLabelValues(stream).Inc()
}
