package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/docaidkit/medkit/internal/observability"
	"github.com/go-resty/resty/v2"
)

var (
	ErrUnknownTool     = errors.New("unknown imaging tool")
	ErrImagingUpstream = errors.New("imaging service unavailable")
)

// Prediction is the normalized inference result. Upstreams disagree on
// types (some send the confidence as a number, some as a string), so the
// decoder flattens everything to strings.
type Prediction struct {
	Label          string            `json:"prediction"`
	Confidence     string            `json:"confidence,omitempty"`
	AllPredictions map[string]string `json:"all_predictions,omitempty"`
}

// Predictor is the imaging upstream surface, kept small so the circuit
// breaker and test fakes can wrap it.
type Predictor interface {
	Predict(ctx context.Context, tool, filename string, file []byte) (Prediction, error)
}

// ImagingClient uploads an image as multipart form data to the configured
// per-tool prediction endpoint.
type ImagingClient struct {
	client    *resty.Client
	endpoints map[string]string
	prom      *observability.Prom
}

func NewImagingClient(endpoints map[string]string, prom *observability.Prom) *ImagingClient {
	return &ImagingClient{
		client:    resty.New().SetTimeout(60 * time.Second),
		endpoints: endpoints,
		prom:      prom,
	}
}

func (c *ImagingClient) observe(tool string, fn func() error) error {
	if c.prom != nil {
		return c.prom.ObserveProxy("imaging_"+tool, fn)
	}
	return fn()
}

func (c *ImagingClient) Predict(ctx context.Context, tool, filename string, file []byte) (Prediction, error) {
	endpoint, ok := c.endpoints[tool]

	if !ok {
		return Prediction{}, ErrUnknownTool
	}

	var body []byte

	err := c.observe(tool, func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetFileReader("file", filename, bytes.NewReader(file)).
			Post(endpoint)

		if err != nil {
			return fmt.Errorf("imaging predict: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("%w: status %d", ErrImagingUpstream, resp.StatusCode())
		}

		body = resp.Body()
		return nil
	})

	if err != nil {
		return Prediction{}, err
	}

	return decodePrediction(body)
}

func decodePrediction(body []byte) (Prediction, error) {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(body, &raw); err != nil {
		return Prediction{}, fmt.Errorf("decode prediction: %w", err)
	}

	if errMsg, ok := raw["error"]; ok {
		return Prediction{}, fmt.Errorf("%w: %s", ErrImagingUpstream, flattenJSON(errMsg))
	}

	p := Prediction{}

	if v, ok := raw["prediction"]; ok {
		p.Label = flattenJSON(v)
	}
	if v, ok := raw["confidence"]; ok {
		p.Confidence = flattenJSON(v)
	}
	if v, ok := raw["all_predictions"]; ok {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(v, &m); err == nil {
			p.AllPredictions = make(map[string]string, len(m))
			for label, conf := range m {
				p.AllPredictions[label] = flattenJSON(conf)
			}
		}
	}

	if p.Label == "" {
		return Prediction{}, fmt.Errorf("%w: response carried no prediction", ErrImagingUpstream)
	}

	return p, nil
}

// flattenJSON renders a scalar JSON value as its bare string form.
func flattenJSON(raw json.RawMessage) string {
	var s string

	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(bytes.TrimSpace(raw))
}
