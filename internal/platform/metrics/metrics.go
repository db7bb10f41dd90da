package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RecordsAdded      *prometheus.CounterVec
	RecordsRemoved    *prometheus.CounterVec
	Syncs             *prometheus.CounterVec
	Projections       prometheus.Counter
	ProjectionSeconds prometheus.Histogram
	SecretaryClaims   *prometheus.CounterVec
	PaymentsVerified  *prometheus.CounterVec
	CreditsApplied    prometheus.Counter
	DebitsApplied     prometheus.Counter
	Exports           prometheus.Counter
	RequestSeconds    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RecordsAdded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "easyform_records_added_total",
			Help: "Record blocks added, by record kind",
		}, []string{"kind"}),
		RecordsRemoved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "easyform_records_removed_total",
			Help: "Record blocks removed, by record kind",
		}, []string{"kind"}),
		Syncs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "easyform_syncs_total",
			Help: "Sync engine passes, by outcome (full or coalesced)",
		}, []string{"outcome"}),
		Projections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "easyform_projections_total",
			Help: "Overlay projection passes",
		}),
		ProjectionSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "easyform_projection_duration_seconds",
			Help:    "Time spent recomputing the presentation surface",
			Buckets: prometheus.DefBuckets,
		}),
		SecretaryClaims: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "easyform_secretary_claims_total",
			Help: "Secretary role claims, by outcome (granted or rejected)",
		}, []string{"outcome"}),
		PaymentsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "easyform_payments_verified_total",
			Help: "Paystack verification calls, by resulting status",
		}, []string{"status"}),
		CreditsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "easyform_ledger_credits_total",
			Help: "Credit transactions applied to user accounts",
		}),
		DebitsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "easyform_ledger_debits_total",
			Help: "Debit transactions applied to user accounts",
		}),
		Exports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "easyform_exports_total",
			Help: "Completed document exports",
		}),
		RequestSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "easyform_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
