// Package metrics exposes assessment outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/domain"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/recommend"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
)

// Collector owns the assessment metrics and the registry they live in.
type Collector struct {
	registry *prometheus.Registry

	assessmentsTotal    prometheus.Counter
	assessmentsByStatus *prometheus.CounterVec
	assessmentsByDomain *prometheus.CounterVec
	compositeScore      prometheus.Gauge
	dimensionScores     *prometheus.GaugeVec
	assessmentDuration  prometheus.Histogram
	safetyViolations    prometheus.Counter
	criticalIssues      prometheus.Counter
	complianceChecks    *prometheus.CounterVec
}

// New creates a Collector on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the assessment metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	c := &Collector{
		registry: reg,
		assessmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agi_aef_assessments_total",
			Help: "Total number of assessments performed",
		}),
		assessmentsByStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agi_aef_assessments_by_status",
			Help: "Assessments grouped by audit status",
		}, []string{"status"}),
		assessmentsByDomain: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agi_aef_assessments_by_domain",
			Help: "Assessments grouped by domain profile",
		}, []string{"domain"}),
		compositeScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agi_aef_composite_score",
			Help: "Composite score (0-255) of the latest assessment",
		}),
		dimensionScores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agi_aef_dimension_scores",
			Help: "Latest score per dimension",
		}, []string{"dimension"}),
		assessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agi_aef_assessment_duration_seconds",
			Help:    "Assessment execution time",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		safetyViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agi_aef_safety_violations_total",
			Help: "Assessments whose safety alignment fell below the critical threshold",
		}),
		criticalIssues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agi_aef_critical_issues_total",
			Help: "Blocking domain profile violations",
		}),
		complianceChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agi_aef_compliance_checks",
			Help: "Domain compliance checks by agency and result",
		}, []string{"agency", "result"}),
	}
	reg.MustRegister(
		c.assessmentsTotal, c.assessmentsByStatus, c.assessmentsByDomain,
		c.compositeScore, c.dimensionScores, c.assessmentDuration,
		c.safetyViolations, c.criticalIssues, c.complianceChecks,
	)
	return c
}

// Observe records a completed assessment. validation may be nil when no
// domain profile was applied.
func (c *Collector) Observe(result *assessment.Result, validation *domain.Validation, elapsed time.Duration) {
	c.assessmentsTotal.Inc()
	c.assessmentsByStatus.WithLabelValues(string(result.AuditStatus)).Inc()
	c.compositeScore.Set(float64(result.CompositeScore))
	for name, score := range result.DimensionScores {
		c.dimensionScores.WithLabelValues(name).Set(score)
	}
	c.assessmentDuration.Observe(elapsed.Seconds())

	if s, ok := result.DimensionScores[rubric.SafetyAlignment]; ok && s < recommend.SafetyCriticalBelow {
		c.safetyViolations.Inc()
	}

	if validation == nil {
		c.assessmentsByDomain.WithLabelValues(domain.DefaultCode).Inc()
		return
	}
	c.assessmentsByDomain.WithLabelValues(validation.Profile).Inc()
	for _, v := range validation.Violations {
		if v.Severity.Blocking() {
			c.criticalIssues.Inc()
		}
	}
	outcome := "fail"
	if validation.Passed {
		outcome = "pass"
	}
	for _, agency := range validation.Agencies {
		c.complianceChecks.WithLabelValues(agency, outcome).Inc()
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
