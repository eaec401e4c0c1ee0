package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "haven_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "haven_ws_connections_active",
			Help: "Currently open websocket connections",
		},
	)

	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_events_total",
			Help: "Total inbound relay events by name",
		},
		[]string{"event"},
	)

	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_messages_posted_total",
			Help: "Total messages appended to channel logs",
		},
		[]string{"kind"}, // "text" or "file"
	)

	BroadcastFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "haven_broadcast_fanout",
			Help:    "Recipients per room broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	DroppedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "haven_dropped_frames_total",
			Help: "Outbound frames dropped for slow or closed connections",
		},
	)

	// Infrastructure metrics
	StoreAppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "haven_store_append_duration_seconds",
			Help:    "Message store append latency",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1},
		},
	)

	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "haven_uploads_total",
			Help: "Total files uploaded",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)
)
