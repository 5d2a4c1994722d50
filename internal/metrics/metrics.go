// Package metrics экспортирует метрики торгов в Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmeshcher/lot-auction/internal/model"
)

const namespace = "auction"

// Collector преобразует события движка в метрики Prometheus.
type Collector struct {
	registry *prometheus.Registry

	bidsAccepted prometheus.Counter
	bidsRejected *prometheus.CounterVec
	lotsResolved *prometheus.CounterVec
	saleAmount   prometheus.Histogram
	revenue      prometheus.Counter
	completed    prometheus.Counter
}

// NewCollector создаёт коллектор с собственным реестром.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_accepted_total",
			Help:      "Number of accepted bids.",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_rejected_total",
			Help:      "Number of rejected bids by reason.",
		}, []string{"reason"}),
		lotsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lots_resolved_total",
			Help:      "Number of resolved lots by outcome.",
		}, []string{"outcome"}),
		saleAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_amount",
			Help:      "Final price of sold lots.",
			Buckets:   prometheus.ExponentialBuckets(250_000, 2, 8),
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Sum of final prices of sold lots.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completed_total",
			Help:      "Number of completed auctions.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.bidsAccepted,
		c.bidsRejected,
		c.lotsResolved,
		c.saleAmount,
		c.revenue,
		c.completed,
	)
	return c
}

// Publish обновляет метрики по событию.
func (c *Collector) Publish(ev model.Event) {
	switch e := ev.(type) {
	case model.BidAccepted:
		c.bidsAccepted.Inc()
	case model.BidRejected:
		c.bidsRejected.WithLabelValues(e.Reason).Inc()
	case model.LotSold:
		c.lotsResolved.WithLabelValues("sold").Inc()
		c.saleAmount.Observe(float64(e.Amount))
		c.revenue.Add(float64(e.Amount))
	case model.LotUnsold:
		c.lotsResolved.WithLabelValues("unsold").Inc()
	case model.AuctionCompleted:
		c.completed.Inc()
	}
}

// Handler возвращает HTTP-обработчик для /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
