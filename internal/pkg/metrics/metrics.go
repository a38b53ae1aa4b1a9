// Package metrics - метрики Prometheus сервиса
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исход внешнего вызова (метка outcome)
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Результат обращения к кэшу
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Provider - счётчики и гистограммы оценки
type Provider struct {
	reg *prometheus.Registry

	externalCalls      *prometheus.CounterVec
	signalFallbacks    *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	assessmentDuration prometheus.Histogram
	assessmentsTotal   *prometheus.CounterVec
}

// New создаёт провайдер с собственным реестром.
// nil *Provider допустим и ничего не записывает.
func New(service string) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	constLabels := prometheus.Labels{"service": service}

	p := &Provider{
		reg: reg,
		externalCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "site_external_calls_total",
			Help:        "Outbound calls to geodata sources by outcome.",
			ConstLabels: constLabels,
		}, []string{"source", "outcome"}),
		signalFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "site_signal_fallbacks_total",
			Help:        "Per-point signals that fell back to their default value.",
			ConstLabels: constLabels,
		}, []string{"signal"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "site_cache_lookups_total",
			Help:        "Geodata cache lookups by cache and result.",
			ConstLabels: constLabels,
		}, []string{"cache", "result"}),
		assessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "site_assessment_duration_seconds",
			Help:        "Wall time of a full nine-point assessment.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		assessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "site_assessments_total",
			Help:        "Completed assessments by entry point.",
			ConstLabels: constLabels,
		}, []string{"origin"}),
	}

	reg.MustRegister(p.externalCalls, p.signalFallbacks, p.cacheLookups, p.assessmentDuration, p.assessmentsTotal)
	return p
}

func (p *Provider) Handler() http.Handler {
	if p == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// ObserveExternalCall считает один вызов источника геоданных
func (p *Provider) ObserveExternalCall(source string, err error) {
	if p == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	p.externalCalls.WithLabelValues(source, outcome).Inc()
}

func (p *Provider) IncFallback(signal string) {
	if p == nil {
		return
	}
	p.signalFallbacks.WithLabelValues(signal).Inc()
}

func (p *Provider) ObserveCacheLookup(cache, result string) {
	if p == nil {
		return
	}
	p.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (p *Provider) ObserveAssessment(origin string, d time.Duration) {
	if p == nil {
		return
	}
	p.assessmentDuration.Observe(d.Seconds())
	p.assessmentsTotal.WithLabelValues(origin).Inc()
}
