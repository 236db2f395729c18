package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "checkouts_total",
		Help:      "Total number of checkout attempts by result code.",
	}, []string{"result"})

	CouponRedemptions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "coupon_redemptions_total",
		Help:      "Total number of committed coupon redemptions.",
	})

	StockMovements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "stock",
		Name:      "movements_total",
		Help:      "Total number of stock ledger movements by kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(CheckoutTotal, CouponRedemptions, StockMovements)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
