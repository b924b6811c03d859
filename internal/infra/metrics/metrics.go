package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MovementsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_recorded_total",
		Help: "Stock movements committed to the ledger, by movement type.",
	}, []string{"type"})

	MovementsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_rejected_total",
		Help: "Stock movements rejected before any write, by reason.",
	}, []string{"reason"})

	LowStockAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_low_stock_alerts_total",
		Help: "Low-stock alert notifications sent.",
	})
)
