package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Wallet operation, balance refresh and viewport counters, partitioned by chain.

var (
	// Operations
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "browsewallet",
		Subsystem: "wallet",
		Name:      "operations_total",
		Help:      "Total wallet operations by outcome",
	}, []string{"chain", "operation", "outcome"})

	OperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "browsewallet",
		Subsystem: "wallet",
		Name:      "operation_duration_seconds",
		Help:      "Wallet operation duration including confirmations",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"chain", "operation"})

	OperationsRejectedBusy = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "browsewallet",
		Subsystem: "wallet",
		Name:      "operations_rejected_busy_total",
		Help:      "Operations rejected because another one was in flight",
	}, []string{"chain"})

	// Balance
	BalanceRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "browsewallet",
		Subsystem: "balance",
		Name:      "refresh_total",
		Help:      "Total balance refreshes by outcome",
	}, []string{"chain", "outcome"})

	BalanceRefreshCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "browsewallet",
		Subsystem: "balance",
		Name:      "refresh_cancelled_total",
		Help:      "Scheduled refreshes cancelled by a newer operation",
	}, []string{"chain"})

	// Viewport
	NavigationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "browsewallet",
		Subsystem: "viewport",
		Name:      "navigations_total",
		Help:      "Total navigations by result (framed, blocked, search)",
	}, []string{"result"})

	ProbeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "browsewallet",
		Subsystem: "viewport",
		Name:      "probe_duration_seconds",
		Help:      "Embeddability probe duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
)
