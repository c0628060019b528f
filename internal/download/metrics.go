package download

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded in fermi_download_requests_total.
const (
	ResultHit         = "hit"
	ResultFetched     = "fetched"
	ResultNotModified = "not_modified"
	ResultLocal       = "local"
	ResultError       = "error"
)

type metrics struct {
	requests *prometheus.CounterVec
	bytes    prometheus.Counter
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fermi",
			Subsystem: "download",
			Name:      "requests_total",
			Help:      "Download requests by outcome.",
		}, []string{"result"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fermi",
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Bytes written to the cache.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fermi",
			Subsystem: "download",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent on HTTP fetches.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	reg.MustRegister(m.requests, m.bytes, m.duration)
	for _, r := range []string{ResultHit, ResultFetched, ResultNotModified, ResultLocal, ResultError} {
		m.requests.WithLabelValues(r)
	}
	return m
}

func (m *metrics) observe(result string) { m.requests.WithLabelValues(result).Inc() }

// Stats gathers the manager's request counters keyed by outcome, plus
// "bytes" for the total bytes fetched.
func (m *Manager) Stats() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		switch mf.GetName() {
		case "fermi_download_requests_total":
			for _, metric := range mf.GetMetric() {
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == "result" {
						out[lp.GetValue()] = metric.GetCounter().GetValue()
					}
				}
			}
		case "fermi_download_bytes_total":
			for _, metric := range mf.GetMetric() {
				out["bytes"] = metric.GetCounter().GetValue()
			}
		}
	}
	return out, nil
}

// Registry exposes the manager's metrics for an external gatherer.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }
