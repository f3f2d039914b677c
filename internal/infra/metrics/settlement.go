package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		SettlementRequests,
		SettlementDuration,
	)
}

var (
	// Count of verify callbacks grouped by gateway, result and bounded reason.
	// result: success|failed|error
	// reason: verified|already_verified|cancelled|rejected|malformed|unknown_transaction|gateway_error|db_error
	SettlementRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_requests_total",
			Help: "Count of settlement verifications by gateway, result and reason.",
		},
		[]string{"gateway", "result", "reason"},
	)

	// Latency of settlement handling grouped by result.
	SettlementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Duration of settlement verification in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)
)

func IncSettlement(gateway, result, reason string) {
	SettlementRequests.WithLabelValues(norm(gateway), norm(result), norm(reason)).Inc()
}
