// Package metrics holds the prometheus collectors shared by the api and worker binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventdesk_status_transitions_total",
		Help: "Committed event status transitions.",
	}, []string{"from", "to"})

	Rollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventdesk_store_rollbacks_total",
		Help: "Multi-step store sequences rolled back, by operation and outcome.",
	}, []string{"operation", "outcome"})

	BestEffortFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventdesk_best_effort_failures_total",
		Help: "Audit, notification and publish failures that were logged and swallowed.",
	}, []string{"kind"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventdesk_sweep_runs_total",
		Help: "Worker sweep runs, by sweep and result.",
	}, []string{"sweep", "result"})

	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventdesk_reminders_sent_total",
		Help: "SLA reminders accepted by the mailer, by bucket.",
	}, []string{"bucket"})
)

// Best-effort failure kinds.
const (
	KindAudit   = "audit"
	KindNotify  = "notify"
	KindPublish = "publish"
)
