package observability

import "time"

// ObserveProxy wraps a single upstream tool call.
func (p *Prom) ObserveProxy(tool string, fn func() error) error {
	start := time.Now()

	p.ProxyInFlight.Inc()
	defer p.ProxyInFlight.Dec()

	err := fn()

	result := "ok"
	if err != nil {
		result = "error"
	}

	p.ProxyDuration.WithLabelValues(tool, result).Observe(time.Since(start).Seconds())
	p.ProxyResults.WithLabelValues(tool, result).Inc()

	return err
}
