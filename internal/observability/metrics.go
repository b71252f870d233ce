// Package observability exposes Prometheus metrics for the record store and
// the asset cache agent.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names understood by PromMetrics. Unknown names are ignored.
const (
	CacheHits            = "manhole_cache_hits_total"
	CacheMisses          = "manhole_cache_misses_total"
	CachePassthrough     = "manhole_cache_passthrough_total"
	CacheUnservable      = "manhole_cache_unservable_total"
	RefreshUpdated       = "manhole_cache_refresh_updated_total"
	RefreshFailed        = "manhole_cache_refresh_failed_total"
	InstallSucceeded     = "manhole_cache_install_succeeded_total"
	InstallFailed        = "manhole_cache_install_failed_total"
	ActiveSnapshotAssets = "manhole_cache_active_assets"
	InstallDuration      = "manhole_cache_install_duration_seconds"
	StoreOperationsTotal = "manhole_store_operations_total"
)

// Metrics is the sink components report to.
type Metrics interface {
	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)
	// StoreOp counts one record store operation; err decides the result label.
	StoreOp(op string, err error)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) IncCounter(string, float64)     {}
func (NopMetrics) SetGauge(string, float64)       {}
func (NopMetrics) ObserveLatency(string, float64) {}
func (NopMetrics) StoreOp(string, error)          {}

type PromMetrics struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
	storeOps *prometheus.CounterVec
}

// NewPromMetrics creates the collectors and registers them on reg.
func NewPromMetrics(reg prometheus.Registerer) (*PromMetrics, error) {
	p := &PromMetrics{
		counters: map[string]prometheus.Counter{},
		gauges:   map[string]prometheus.Gauge{},
		histos:   map[string]prometheus.Observer{},
	}

	counterHelp := map[string]string{
		CacheHits:        "Intercepted requests answered from the active snapshot.",
		CacheMisses:      "Intercepted requests absent from the active snapshot.",
		CachePassthrough: "Requests passed through without interception.",
		CacheUnservable:  "Requests with neither a snapshot entry nor network.",
		RefreshUpdated:   "Background refreshes that replaced a snapshot entry.",
		RefreshFailed:    "Background refreshes dropped after a cache hit.",
		InstallSucceeded: "Asset versions installed successfully.",
		InstallFailed:    "Asset install attempts aborted.",
	}
	var collectors []prometheus.Collector
	for name, help := range counterHelp {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		p.counters[name] = c
		collectors = append(collectors, c)
	}

	assets := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ActiveSnapshotAssets,
		Help: "Number of assets in the active snapshot.",
	})
	p.gauges[ActiveSnapshotAssets] = assets

	install := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    InstallDuration,
		Help:    "Time spent fetching and writing a new asset snapshot.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	p.histos[InstallDuration] = install

	p.storeOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: StoreOperationsTotal,
		Help: "Record store operations by operation and result.",
	}, []string{"op", "result"})

	collectors = append(collectors, assets, install, p.storeOps)
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PromMetrics) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromMetrics) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromMetrics) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromMetrics) StoreOp(op string, err error) {
	p.storeOps.WithLabelValues(op, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
