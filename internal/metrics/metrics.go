// Package metrics holds the account server's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors of the server.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	TravelUpserts prometheus.Counter
	CityLookups   *prometheus.CounterVec
	SignIns       *prometheus.CounterVec
}

// New creates a fresh registry with process and Go collectors and
// registers the server metrics on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "been_http_requests_total",
			Help: "Total number of HTTP requests by route pattern and status code",
		}, []string{"route", "code"}),
		TravelUpserts: f.NewCounter(prometheus.CounterOpts{
			Name: "been_travel_upserts_total",
			Help: "Total number of travel record upserts",
		}),
		CityLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "been_city_lookups_total",
			Help: "Total number of city lookups by the step that answered",
		}, []string{"source"}),
		SignIns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "been_signins_total",
			Help: "Total number of sign-in attempts by method and result",
		}, []string{"method", "result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest counts one finished request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// ObserveCityLookup counts a city lookup answered by source.
func (m *Metrics) ObserveCityLookup(source string) {
	m.CityLookups.WithLabelValues(source).Inc()
}

// ObserveSignIn counts a sign-in attempt.
func (m *Metrics) ObserveSignIn(method string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.SignIns.WithLabelValues(method, result).Inc()
}
