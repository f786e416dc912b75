package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestsInFlight  *prometheus.GaugeVec
	EventsTotal       *prometheus.CounterVec
	TokenFetchesTotal prometheus.Counter
	TokenWaiters      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudprint_requests_total",
			Help: "total number of cloud print api requests",
		}, []string{"action", "origin", "status"}),
		RequestsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cloudprint_in_flight_requests",
			Help: "number of in flight cloud print api requests",
		}, []string{"action", "origin"}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudprint_events_total",
			Help: "total number of emitted events",
		}, []string{"kind"}),
		TokenFetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cloudprint_token_fetches_total",
			Help: "total number of device access token fetches",
		}),
		TokenWaiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudprint_token_waiters",
			Help: "number of requests waiting on the in flight token fetch",
		}),
	}

	metrics.Enable(reg)
	return metrics
}

func (m *Metrics) Enable(reg prometheus.Registerer) {
	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestsInFlight)
	reg.MustRegister(m.EventsTotal)
	reg.MustRegister(m.TokenFetchesTotal)
	reg.MustRegister(m.TokenWaiters)
}

func (m *Metrics) Disable(reg prometheus.Registerer) {
	reg.Unregister(m.RequestsTotal)
	reg.Unregister(m.RequestsInFlight)
	reg.Unregister(m.EventsTotal)
	reg.Unregister(m.TokenFetchesTotal)
	reg.Unregister(m.TokenWaiters)
}
