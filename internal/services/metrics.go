// internal/services/metrics.go
package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wizardSessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partnerlink_wizard_sessions_started_total",
			Help: "Wizard sessions opened, by flavor and whether a draft was resumed",
		},
		[]string{"flavor", "resumed"},
	)

	wizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partnerlink_wizard_step_transitions_total",
			Help: "Wizard next-step attempts by flavor and outcome",
		},
		[]string{"flavor", "outcome"},
	)

	wizardSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partnerlink_wizard_submissions_total",
			Help: "Wizard submissions by flavor and outcome",
		},
		[]string{"flavor", "outcome"},
	)

	wizardActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "partnerlink_wizard_active_sessions",
			Help: "Wizard sessions currently held in memory",
		},
	)
)
