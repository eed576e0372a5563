package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total orders booked through the API",
	})
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Open WebSocket connections",
	})
	WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ws_messages_total", Help: "WebSocket frames handled"},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(OrdersCreatedTotal, WSConnections, WSMessagesTotal)
}
