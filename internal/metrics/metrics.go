package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the core storefront operations.
type Metrics struct {
	ordersCreated     prometheus.Counter
	paymentsConfirmed prometheus.Counter
	paymentsFailed    prometheus.Counter
	cartMutations     *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Metrics{
		ordersCreated: registerCounter(reg, prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders created",
		}),
		paymentsConfirmed: registerCounter(reg, prometheus.CounterOpts{
			Name: "storefront_payments_confirmed_total",
			Help: "Total number of payments confirmed",
		}),
		paymentsFailed: registerCounter(reg, prometheus.CounterOpts{
			Name: "storefront_payments_failed_total",
			Help: "Total number of payments marked failed",
		}),
		cartMutations: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		}, []string{"op"}),
	}
}

func (m *Metrics) OrderCreated()          { m.ordersCreated.Inc() }
func (m *Metrics) PaymentConfirmed()      { m.paymentsConfirmed.Inc() }
func (m *Metrics) PaymentFailed()         { m.paymentsFailed.Inc() }
func (m *Metrics) CartMutation(op string) { m.cartMutations.WithLabelValues(op).Inc() }

func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}
