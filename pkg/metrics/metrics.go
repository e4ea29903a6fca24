// Package metrics counts scans, ranges, issues and cache traffic.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"example.com/regexhighlight/pkg/cache"
	"example.com/regexhighlight/pkg/engine"
)

// Metrics is a set of collectors registered on their own registry. A nil
// *Metrics records nothing.
type Metrics struct {
	Registry      *prometheus.Registry
	Scans         *prometheus.CounterVec
	Ranges        *prometheus.CounterVec
	Issues        *prometheus.CounterVec
	CacheEvents   *prometheus.CounterVec
	CompileErrors *prometheus.CounterVec
	ScanSeconds   *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Scans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regexhl_scans_total",
			Help: "Document scans by scope.",
		}, []string{"scope"}),
		Ranges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regexhl_ranges_total",
			Help: "Highlight ranges produced by scans.",
		}, []string{"scope"}),
		Issues: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regexhl_scan_issues_total",
			Help: "Rules stopped early during a scan, by kind.",
		}, []string{"scope", "kind"}),
		CacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regexhl_cache_events_total",
			Help: "Decoration cache hits, misses and evictions.",
		}, []string{"scope", "event"}),
		CompileErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regexhl_compile_errors_total",
			Help: "Rules rejected while compiling settings.",
		}, []string{"scope"}),
		ScanSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regexhl_scan_seconds",
			Help:    "Scan duration.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"scope"}),
	}
}

// ObserveScan records one scan.
func (m *Metrics) ObserveScan(scope string, ranges int, rep *engine.Report) {
	if m == nil || rep == nil {
		return
	}
	m.Scans.WithLabelValues(scope).Inc()
	m.Ranges.WithLabelValues(scope).Add(float64(ranges))
	m.ScanSeconds.WithLabelValues(scope).Observe(rep.Duration.Seconds())
	for _, is := range rep.Issues {
		m.Issues.WithLabelValues(scope, is.Kind.String()).Inc()
	}
}

// CacheObserver returns a cache observer counting events for scope.
func (m *Metrics) CacheObserver(scope string) func(cache.Event) {
	return func(e cache.Event) {
		if m == nil {
			return
		}
		m.CacheEvents.WithLabelValues(scope, e.String()).Inc()
	}
}

// ObserveCompile records the number of compile errors of a load.
func (m *Metrics) ObserveCompile(scope string, errs int) {
	if m == nil {
		return
	}
	m.CompileErrors.WithLabelValues(scope).Add(float64(errs))
}

// WriteText writes every collector in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	if c, ok := enc.(expfmt.Closer); ok {
		return c.Close()
	}
	return nil
}
