// Package metrics exposes Prometheus instrumentation for the realtime
// channel.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	connectedClients prometheus.Gauge
	deliveredEvents  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		connectedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bam_ws_connected_clients",
			Help: "Currently connected websocket clients.",
		}),
		deliveredEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bam_ws_events_delivered_total",
			Help: "Realtime events delivered, by event name.",
		}, []string{"event"}),
	}
}

func (m *Metrics) ClientConnected()    { m.connectedClients.Inc() }
func (m *Metrics) ClientDisconnected() { m.connectedClients.Dec() }
func (m *Metrics) EventDelivered(event string) {
	m.deliveredEvents.WithLabelValues(event).Inc()
}

// Handler returns the fiber handler serving the Prometheus scrape
// endpoint.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
