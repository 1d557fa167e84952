package proxy

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type ProtectedPredictorConfig struct {
	Timeout          time.Duration // hard timeout per call
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

// ProtectedPredictor wraps an imaging upstream with a circuit breaker so a
// dead inference host fails fast instead of tying up every request for the
// full upload timeout.
type ProtectedPredictor struct {
	inner Predictor
	cfg   ProtectedPredictorConfig
	mu    sync.Mutex

	state string // "closed" | "open" | "half_open"

	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedPredictor(inner Predictor, cfg ProtectedPredictorConfig) *ProtectedPredictor {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedPredictor{
		inner: inner,
		cfg:   cfg,
		state: "closed",
	}
}

func (p *ProtectedPredictor) Predict(ctx context.Context, tool, filename string, file []byte) (Prediction, error) {
	// fail-fast gate

	if !p.allowRequest() {
		return Prediction{}, ErrCircuitOpen
	}
	// enforce timeout

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	pred, err := p.inner.Predict(callCtx, tool, filename, file)

	// an unknown tool is a caller mistake, not upstream health
	if errors.Is(err, ErrUnknownTool) {
		return Prediction{}, err
	}

	p.afterRequest(err)

	return pred, err
}

func (p *ProtectedPredictor) allowRequest() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case "closed":
		return true
	case "open":
		// cooldown has passed? move to half open

		if time.Since(p.openedAt) >= p.cfg.Cooldown {
			p.state = "half_open"
			p.halfOpenInFlight = 0
			return true
		}
		return false
	case "half_open":
		if p.halfOpenInFlight >= p.cfg.HalfOpenMaxCalls {
			return false
		}
		p.halfOpenInFlight++
		return true

	default:
		// safe fallback
		return true
	}
}

func (p *ProtectedPredictor) afterRequest(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		// success => close circuit and reset counters
		p.consecutiveFailures = 0
		p.state = "closed"
		return
	}

	// failure
	p.consecutiveFailures++

	// if half-open failed, reopen immediately
	if p.state == "half_open" {
		p.state = "open"
		p.openedAt = time.Now()
		return
	}

	// if failures reached threshold, open circuit
	if p.consecutiveFailures >= p.cfg.FailureThreshold {
		p.state = "open"
		p.openedAt = time.Now()
	}
}
