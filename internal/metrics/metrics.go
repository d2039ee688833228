// Package metrics exposes Prometheus counters the engine updates during
// operation, served at /metrics in text exposition format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Ticks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitbot_ticks_total",
			Help: "Strategy ticks evaluated, split by resulting signal type",
		},
		[]string{"signal"},
	)

	Orders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitbot_orders_total",
			Help: "Orders placed at the execution gateway",
		},
		[]string{"mode", "side"}, // mode: paper|live
	)

	OrderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitbot_order_failures_total",
			Help: "Order failures split by classified category",
		},
		[]string{"category"},
	)

	Exits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitbot_exits_total",
			Help: "Strategy exits split by reason",
		},
		[]string{"reason"}, // take_profit|stop_loss|gradual_sell|expired
	)

	ActiveStrategies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "exitbot_active_strategies",
			Help: "Strategies the monitor is currently ticking",
		},
	)

	MonitorCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exitbot_monitor_cycles_total",
			Help: "Completed monitor polling cycles",
		},
	)
)
