// Package metrics exposes Prometheus metrics for the settlement engine and
// the RPC surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Week-closing outcomes.
const (
	OutcomeProcessed     = "processed"
	OutcomeAlreadyClosed = "already_closed"
	OutcomeGroupTooNew   = "group_too_new"
	OutcomeLostRace      = "lost_race"
	OutcomeFailed        = "failed"
)

// Fine sources.
const (
	SourceWeek       = "week"
	SourceChallenge  = "challenge"
	SourceAdjustment = "adjustment"
)

// Recorder holds every metric the service exports. A nil *Recorder records
// nothing.
type Recorder struct {
	weeksClosed          *prometheus.CounterVec
	finesApplied         *prometheus.CounterVec
	fineAmount           *prometheus.CounterVec
	challengeTransitions *prometheus.CounterVec
	txRetries            *prometheus.CounterVec
	rpcRequests          *prometheus.CounterVec
	rpcDuration          *prometheus.HistogramVec
}

// Option configures a Recorder.
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace overrides the metric namespace (default "multas").
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithBuckets overrides the RPC latency histogram buckets.
func WithBuckets(b []float64) Option {
	return func(o *options) { o.buckets = b }
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer, opts ...Option) *Recorder {
	o := options{namespace: "multas", buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	f := promauto.With(reg)

	return &Recorder{
		weeksClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "settlement", Name: "week_closings_total",
			Help: "Week-closing attempts by outcome.",
		}, []string{"outcome"}),
		finesApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "settlement", Name: "fines_applied_total",
			Help: "Number of fines charged to participants.",
		}, []string{"source"}),
		fineAmount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "settlement", Name: "fine_amount_total",
			Help: "Sum of fines charged to participants.",
		}, []string{"source"}),
		challengeTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "settlement", Name: "challenge_transitions_total",
			Help: "Challenge state changes by target status.",
		}, []string{"status"}),
		txRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "settlement", Name: "tx_retries_total",
			Help: "Transactions retried after a transient storage failure.",
		}, []string{"operation"}),
		rpcRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "rpc", Name: "requests_total",
			Help: "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace, Subsystem: "rpc", Name: "duration_seconds",
			Help: "RPC latency.", Buckets: o.buckets,
		}, []string{"procedure"}),
	}
}

// WeekClosing counts one week-closing attempt.
func (r *Recorder) WeekClosing(outcome string) {
	if r == nil {
		return
	}
	r.weeksClosed.WithLabelValues(outcome).Inc()
}

// FinesApplied counts n fines of amount each.
func (r *Recorder) FinesApplied(source string, n int, amount int64) {
	if r == nil {
		return
	}
	r.finesApplied.WithLabelValues(source).Add(float64(n))
	r.fineAmount.WithLabelValues(source).Add(float64(int64(n) * amount))
}

// ChallengeTransition counts a challenge moving to status.
func (r *Recorder) ChallengeTransition(status string) {
	if r == nil {
		return
	}
	r.challengeTransitions.WithLabelValues(status).Inc()
}

// TxRetry counts a retried transaction.
func (r *Recorder) TxRetry(operation string) {
	if r == nil {
		return
	}
	r.txRetries.WithLabelValues(operation).Inc()
}

// RPC records one finished call.
func (r *Recorder) RPC(procedure, code string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.rpcRequests.WithLabelValues(procedure, code).Inc()
	r.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}
