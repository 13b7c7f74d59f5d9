package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Cycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketsup_cycles_total",
		Help: "Total number of poll cycles, labelled by outcome.",
	}, []string{"status"})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ticketsup_cycle_duration_seconds",
		Help:    "Wall time of one poll cycle across all robots.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketsup_fetch_failures_total",
		Help: "Total number of failed ticket fetches (connection errors).",
	})

	ConnectRetries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ticketsup_connect_retries",
		Help: "Current consecutive connection retry count.",
	})

	TicketsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketsup_tickets_fetched_total",
		Help: "Total number of eligible tickets fetched, labelled by robot.",
	}, []string{"robot"})

	RulesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketsup_rules_matched_total",
		Help: "Total number of rule matches, labelled by robot and rule.",
	}, []string{"robot", "rule"})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketsup_actions_executed_total",
		Help: "Total number of actions executed, labelled by type and status.",
	}, []string{"action_type", "status"})

	RobotErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketsup_robot_errors_total",
		Help: "Total number of failures isolated at robot or ticket level.",
	}, []string{"robot", "scope"})
)
