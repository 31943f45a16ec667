package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors, registered on the default registry and exposed by
// the metrics server.
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "status"})

	CartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_cart_operations_total",
		Help: "Cart add/remove operations by result",
	}, []string{"operation", "result"})

	ChatCompletionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qrmenu_chat_completion_seconds",
		Help:    "Latency of chat completion calls",
		Buckets: prometheus.DefBuckets,
	})

	ActiveWebsockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qrmenu_active_websockets",
		Help: "Currently connected cart feed websockets",
	})
)
