package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	EmailsProcessed   prometheus.Counter
	ProcessingErrors  prometheus.Counter
	JobRelatedEmails  prometheus.Counter
	DegradedSteps     *prometheus.CounterVec
	LinksAccepted     *prometheus.CounterVec
	JobStatusUpdates  prometheus.Counter
	ProcessingTime    prometheus.Histogram
	RateLimitedCalls  prometheus.Counter
	MailboxSyncCycles prometheus.Counter
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		EmailsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobmail_intel_emails_processed_total",
			Help: "Total number of emails run through the pipeline",
		}),
		ProcessingErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobmail_intel_processing_errors_total",
			Help: "Total number of per-email processing failures",
		}),
		JobRelatedEmails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobmail_intel_job_related_total",
			Help: "Total number of emails classified as job-related",
		}),
		DegradedSteps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "jobmail_intel_degraded_steps_total",
			Help: "Pipeline steps that failed non-fatally, by step",
		}, []string{"step"}),
		LinksAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "jobmail_intel_links_accepted_total",
			Help: "Accepted job links, by matching strategy",
		}, []string{"strategy"}),
		JobStatusUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobmail_intel_job_status_updates_total",
			Help: "Job status transitions pushed from emails",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobmail_intel_processing_duration_seconds",
			Help:    "Time spent processing one email end to end",
			Buckets: prometheus.DefBuckets,
		}),
		RateLimitedCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobmail_intel_rate_limited_total",
			Help: "Requests rejected by the gateway rate limiter",
		}),
		MailboxSyncCycles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobmail_intel_mailbox_sync_cycles_total",
			Help: "Completed scheduled mailbox sync cycles",
		}),
	}
}
