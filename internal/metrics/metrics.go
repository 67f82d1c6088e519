package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the serving path. Billing and
// sampling failures never reach the client, so these counters are the
// only place they surface.
type Metrics struct {
	AdsServedTotal        prometheus.Counter
	NoInventoryTotal      prometheus.Counter
	ImpressionsTotal      prometheus.Counter
	ClicksTotal           prometheus.Counter
	BillingFailuresTotal  prometheus.Counter
	SamplingFailuresTotal prometheus.Counter
	OpportunitiesTotal    prometheus.Counter
	BudgetExceededTotal   *prometheus.CounterVec
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	ServeDurationSeconds  prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a Metrics instance with all metrics registered on a private
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		AdsServedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_ads_served_total",
			Help: "Total number of ad responses returned with at least one creative",
		}),
		NoInventoryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_no_inventory_total",
			Help: "Total number of requests with an empty eligible set",
		}),
		ImpressionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_impressions_total",
			Help: "Total number of impression records written",
		}),
		ClicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_clicks_total",
			Help: "Total number of click records written",
		}),
		BillingFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_billing_failures_total",
			Help: "Total number of spend-ledger writes that failed after an impression was recorded",
		}),
		SamplingFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_sampling_failures_total",
			Help: "Total number of swallowed opportunity-sampling errors",
		}),
		OpportunitiesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_opportunities_total",
			Help: "Total number of sampled opportunity records written",
		}),
		BudgetExceededTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adserver_budget_exceeded_total",
			Help: "Total number of daily budget crossings, by configured action",
		}, []string{"action"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_cache_hits_total",
			Help: "Total number of serving-cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adserver_cache_misses_total",
			Help: "Total number of serving-cache misses",
		}),
		ServeDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "adserver_serve_duration_seconds",
			Help:    "Latency of the full ad decisioning path",
			Buckets: prometheus.DefBuckets,
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.AdsServedTotal,
		m.NoInventoryTotal,
		m.ImpressionsTotal,
		m.ClicksTotal,
		m.BillingFailuresTotal,
		m.SamplingFailuresTotal,
		m.OpportunitiesTotal,
		m.BudgetExceededTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.ServeDurationSeconds,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler returns an http.Handler exposing the registry in Prometheus
// text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
