// Package telemetry exposes prometheus metrics for the trading agent
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Cycle metrics
	MetricCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trader_cycles_total", Help: "Decision cycles completed"})
	MetricCycleErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trader_cycle_errors_total", Help: "Decision cycles aborted by an unclassified error"})
	MetricCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trader_cycle_duration_seconds",
		Help:    "Wall-clock duration of a full decision cycle",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10)})

	// Order metrics
	MetricOrdersSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_orders_submitted_total", Help: "Entry orders handed to the brokerage"},
		[]string{"side"})
	MetricOrderErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trader_order_errors_total", Help: "Order submissions rejected or failed"})
	MetricExitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_exits_total", Help: "Position close orders by triggering rule"},
		[]string{"rule"})
	MetricRotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trader_rotations_total", Help: "Positions closed to free capital for a better-ranked candidate"})
	MetricEntriesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_entries_rejected_total", Help: "Candidate entries rejected before submission"},
		[]string{"reason"})

	// Portfolio state
	MetricOpenPositions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trader_open_positions", Help: "Positions currently mirrored from the brokerage"})
	MetricTotalExposure = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trader_total_exposure", Help: "Aggregate absolute position value as a fraction of equity"})
	MetricCandidatesScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trader_candidates_scanned_total", Help: "Candidates that passed technical analysis"})

	// HTTP client metrics
	MetricHTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_http_requests_total", Help: "Outbound HTTP requests"},
		[]string{"host", "method"})
	MetricHTTPErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_http_errors_total", Help: "Outbound HTTP failures and 4xx/5xx responses"},
		[]string{"host", "method"})
	MetricHTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trader_http_request_duration_seconds",
		Help:    "Outbound HTTP request latency",
		Buckets: prometheus.DefBuckets},
		[]string{"host", "method"})
)

func init() {
	prometheus.MustRegister(
		MetricCyclesTotal, MetricCycleErrorsTotal, MetricCycleDuration,
		MetricOrdersSubmitted, MetricOrderErrors, MetricExitsTotal,
		MetricRotationsTotal, MetricEntriesRejected,
		MetricOpenPositions, MetricTotalExposure, MetricCandidatesScanned,
		MetricHTTPRequests, MetricHTTPErrors, MetricHTTPDuration,
	)
}
