package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// key-value storage
	StoreOpDuration  *prometheus.HistogramVec
	StoreErrorsTotal *prometheus.CounterVec

	// external tool proxies

	ProxyDuration *prometheus.HistogramVec
	ProxyResults  *prometheus.CounterVec
	ProxyInFlight prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "medkit",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "medkit",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "medkit",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "medkit",
				Subsystem: "store",
				Name:      "op_duration_seconds",
				Help:      "Storage operation latency (logical op, not raw command)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "medkit",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Storage errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		ProxyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "medkit",
				Subsystem: "proxy",
				Name:      "duration_seconds",
				Help:      "Upstream tool call duration by tool and result",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"tool", "result"}, // result=ok|error
		),
		ProxyResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "medkit",
				Subsystem: "proxy",
				Name:      "results_total",
				Help:      "Upstream tool call outcomes by tool and result.",
			},
			[]string{"tool", "result"},
		),
		ProxyInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "medkit",
				Subsystem: "proxy",
				Name:      "in_flight",
				Help:      "Current number of outstanding upstream tool calls (per process)",
			},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.StoreOpDuration, p.StoreErrorsTotal, p.ProxyDuration, p.ProxyResults, p.ProxyInFlight)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
