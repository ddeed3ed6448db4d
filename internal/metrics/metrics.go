package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mindfulhaven"

var (
	once sync.Once

	bookingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_requests_total",
			Help:      "Booking requests by outcome (created, reused, conflict).",
		},
		[]string{"outcome"},
	)

	paymentOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_orders_total",
			Help:      "Gateway orders requested by result.",
		},
		[]string{"result"},
	)

	paymentVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment verification attempts by outcome.",
		},
		[]string{"outcome"},
	)

	classMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "class_mutations_total",
			Help:      "Class catalog writes by operation.",
		},
		[]string{"op"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingRequests, paymentOrders, paymentVerifications, classMutations)
	})
}

func IncBooking(outcome string) {
	bookingRequests.WithLabelValues(outcome).Inc()
}

func IncPaymentOrder(result string) {
	paymentOrders.WithLabelValues(result).Inc()
}

func IncVerification(outcome string) {
	paymentVerifications.WithLabelValues(outcome).Inc()
}

func IncClassMutation(op string) {
	classMutations.WithLabelValues(op).Inc()
}
