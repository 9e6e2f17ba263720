// Package metrics exposes parse and ingest counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/nemweb/internal/mms"
)

// Archive outcomes for the archives counter.
const (
	ResultOK      = "ok"
	ResultPartial = "partial" // some entries failed
	ResultFailed  = "failed"  // every entry failed, or the archive was unreadable
	ResultSkipped = "skipped" // already in the ledger
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	records  *prometheus.CounterVec
	issues   prometheus.Counter
	failures prometheus.Counter
	archives *prometheus.CounterVec
	duration prometheus.Histogram
	inFlight prometheus.Gauge
}

// New registers the collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nemweb_records_total",
			Help: "Records decoded, by record kind.",
		}, []string{"kind"}),
		issues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nemweb_row_issues_total",
			Help: "Rows skipped with a recoverable error.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nemweb_entry_failures_total",
			Help: "Archive entries that produced no result.",
		}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nemweb_archives_total",
			Help: "Archives processed, by outcome.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nemweb_parse_duration_seconds",
			Help:    "Time to parse one archive.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nemweb_parses_in_flight",
			Help: "Archives currently being parsed.",
		}),
	}

	m.registry.MustRegister(
		m.records, m.issues, m.failures, m.archives, m.duration, m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records the outcome of one parsed archive.
func (m *Metrics) Observe(col *mms.Collection) {
	for kind, n := range col.CountByKind() {
		m.records.WithLabelValues(string(kind)).Add(float64(n))
	}
	m.issues.Add(float64(len(col.Issues)))
	m.failures.Add(float64(len(col.Failures)))
	m.duration.Observe(col.Duration.Seconds())
	m.archives.WithLabelValues(Result(col)).Inc()
}

// ObserveResult counts an archive that never reached the parser.
func (m *Metrics) ObserveResult(result string) {
	m.archives.WithLabelValues(result).Inc()
}

// TrackInFlight increments the in-flight gauge; call the returned func when done.
func (m *Metrics) TrackInFlight() func() {
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Result classifies a collection for the archives counter.
func Result(col *mms.Collection) string {
	switch {
	case col.AllFailed():
		return ResultFailed
	case len(col.Failures) > 0:
		return ResultPartial
	default:
		return ResultOK
	}
}
