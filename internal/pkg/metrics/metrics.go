// Package metrics defines and registers the custom Prometheus metrics of the
// notification and reminder engine. Metrics are registered with the default
// registry at init through promauto; HTTP request metrics come from the
// echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsCreatedTotal counts persisted notifications.
// Label:
//   - kind: the notification kind (e.g. "new-lead", "task-assigned")
var NotificationsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_created_total",
		Help:      "Total number of notifications persisted, by kind.",
	},
	[]string{"kind"},
)

// NotificationsSkippedTotal counts live events that produced no notification.
// Label:
//   - reason: "lookup_miss", "no_targets" or "insert_failed"
var NotificationsSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_skipped_total",
		Help:      "Total number of live events or drafts that produced no stored notification.",
	},
	[]string{"reason"},
)

// PushesTotal counts per-target push attempts.
// Label:
//   - result: "delivered", "offline", "failed" or "dropped"
var PushesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pushes_total",
		Help:      "Total number of live push attempts, by result.",
	},
	[]string{"result"},
)

// ── Live channel metrics ──────────────────────────────────────────────────────

// LiveSessions tracks currently open live sessions.
var LiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sessions",
		Help:      "Current number of open live sessions.",
	},
)

// LiveEventsTotal counts client events accepted on the live channel.
// Label:
//   - event: the client event name (e.g. "newLead")
var LiveEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_events_total",
		Help:      "Total number of client events accepted, by event name.",
	},
	[]string{"event"},
)

// EventQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_queue_depth",
		Help:      "Current number of live events pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// EventProcessingDuration measures how long one live event takes from dequeue
// to publish.
var EventProcessingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Duration of live event processing from dequeue to publish.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Reminder metrics ──────────────────────────────────────────────────────────

// RemindersTotal counts reminder job outcomes.
// Label:
//   - result: "scheduled", "skipped_past", "skipped_channel", "skipped_invalid",
//     "cancelled", "sent", "failed", "abandoned" or "duplicate"
var RemindersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_total",
		Help:      "Total number of reminder jobs, by outcome.",
	},
	[]string{"result"},
)

// ReminderSendDuration measures SMTP delivery time.
var ReminderSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reminder_send_duration_seconds",
		Help:      "Duration of reminder email delivery.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	},
)

// ── Directory metrics ─────────────────────────────────────────────────────────

// DirectoryUsers tracks the size of the current user snapshot.
var DirectoryUsers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "directory_users",
		Help:      "Number of users in the current directory snapshot.",
	},
)

// DirectoryRefreshErrorsTotal counts failed directory refreshes.
var DirectoryRefreshErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "directory_refresh_errors_total",
		Help:      "Total number of failed user directory refreshes.",
	},
)
