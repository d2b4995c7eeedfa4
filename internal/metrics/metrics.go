package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers portal metrics: upstream account API calls and
// contact-form deliveries.
type Collector struct {
	registry *prometheus.Registry

	gatewayCalls   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	contactSent    *prometheus.CounterVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_gateway_calls_total",
			Help: "Account API calls by operation and status code.",
		}, []string{"op", "status"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_gateway_latency_seconds",
			Help:    "Account API call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		contactSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_contact_messages_total",
			Help: "Contact messages dispatched by channel.",
		}, []string{"channel"}),
	}

	registry.MustRegister(c.gatewayCalls, c.gatewayLatency, c.contactSent)

	return c
}

// ObserveCall implements gateway.Recorder. Status 0 means no response
// reached us.
func (c *Collector) ObserveCall(op string, status int, elapsed time.Duration) {
	c.gatewayCalls.WithLabelValues(op, strconv.Itoa(status)).Inc()
	c.gatewayLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordContact counts a dispatched contact message.
func (c *Collector) RecordContact(channel string) {
	c.contactSent.WithLabelValues(channel).Inc()
}

// Handler serves the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
