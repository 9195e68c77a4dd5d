// Package metrics defines and registers all custom Prometheus metrics for the
// Blogcom account API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blogcom_account"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts finished auth operations.
// Labels:
//   - operation: "signup", "verify_otp", "resend_otp", "signin", "forgot_password", "reset_password"
//   - outcome: "success", or the error kind ("validation", "conflict", "not_found", "auth", "unverified", "error")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of auth operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailsSentTotal counts delivered e-mails.
// Label:
//   - kind: "otp" or "password_reset"
var MailsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mails_sent_total",
		Help:      "Total number of e-mails handed to the mail sender successfully.",
	},
	[]string{"kind"},
)

// MailsFailedTotal counts e-mails that could not be delivered.
// Label:
//   - kind: "otp" or "password_reset"
var MailsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mails_failed_total",
		Help:      "Total number of e-mails the mail sender rejected.",
	},
	[]string{"kind"},
)

// MailQueueDepth tracks the number of e-mails waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of e-mails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MailDeliveryDuration measures how long the sender takes per message.
var MailDeliveryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_delivery_duration_seconds",
		Help:      "Duration of a single e-mail delivery attempt.",
		Buckets:   prometheus.DefBuckets,
	},
)
