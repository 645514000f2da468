package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several apps can live in one process.
// All methods tolerate a nil receiver.
type Metrics struct {
	reg       *prometheus.Registry
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Orders    *prometheus.CounterVec
	PayInits  *prometheus.CounterVec
	Callbacks *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bazaar",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "orders_created_total",
			Help:      "Orders committed, by payment method.",
		}, []string{"payment_method"}),
		PayInits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "payment_init_total",
			Help:      "Gateway session initiations, by outcome.",
		}, []string{"outcome"}),
		Callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "payment_callbacks_total",
			Help:      "Gateway callbacks, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests, m.LatencyMS, m.Orders, m.PayInits, m.Callbacks,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderCreated(method string) {
	if m != nil {
		m.Orders.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) PaymentInit(outcome string) {
	if m != nil {
		m.PayInits.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Callback(kind, outcome string) {
	if m != nil {
		m.Callbacks.WithLabelValues(kind, outcome).Inc()
	}
}

// Middleware counts requests by matched route, not raw path.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if m == nil {
			return err
		}
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		// Label values outlive the request; fasthttp reuses its buffers.
		method := utils.CopyString(c.Method())
		route := c.Route().Path
		m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}
