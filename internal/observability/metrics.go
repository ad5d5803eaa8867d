package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocketBackpressureDrops counts messages dropped because a client's
// outbound buffer was full or its channel was already closed.
var WebSocketBackpressureDrops = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "triplog_websocket_backpressure_drops_total",
		Help: "Messages dropped due to websocket client backpressure",
	},
	[]string{"hub", "reason"},
)
