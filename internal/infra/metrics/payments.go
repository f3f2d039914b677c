package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		checkoutTotal,
		transactionsTotal,
		revenueToman,
	)
}

var (
	// Checkout attempts by gateway and result.
	// result: ok|auth_error|bad_product|gateway_error|db_error
	checkoutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_requests_total",
			Help: "Payment request creations by gateway and result.",
		},
		[]string{"gateway", "result"},
	)

	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Transactions by final status (pending/completed/failed).",
		},
		[]string{"status"},
	)

	revenueToman = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revenue_toman_total",
			Help: "Total value of completed transactions in Tomans, by product type.",
		},
		[]string{"product_type"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncCheckout(gateway, result string) {
	checkoutTotal.WithLabelValues(norm(gateway), norm(result)).Inc()
}

func IncTransaction(status string) {
	transactionsTotal.WithLabelValues(norm(status)).Inc()
}

func AddRevenue(productType string, amountToman int64) {
	revenueToman.WithLabelValues(norm(productType)).Add(float64(amountToman))
}
