package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docaidkit/medkit/internal/observability"
	"github.com/go-resty/resty/v2"
)

var ErrChatNotConfigured = errors.New("chat upstream is not configured")

// ChatRelay forwards a single user message to the conversational upstream
// and hands back whatever it answered. A JSON body is forwarded as-is; a
// non-JSON body is wrapped as {"raw": text}. The upstream status code is
// mirrored so the caller can surface failures without inventing its own.
type ChatRelay struct {
	client *resty.Client
	prom   *observability.Prom
}

type chatRequest struct {
	Message string `json:"message"`
}

func NewChatRelay(upstreamURL string, prom *observability.Prom) *ChatRelay {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(upstreamURL, "/")).
		SetTimeout(30 * time.Second)

	return &ChatRelay{client: cli, prom: prom}
}

func (r *ChatRelay) observe(fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveProxy("chat", fn)
	}
	return fn()
}

func (r *ChatRelay) Send(ctx context.Context, message string) (int, json.RawMessage, error) {
	if r.client.BaseURL == "" {
		return 0, nil, ErrChatNotConfigured
	}

	var resp *resty.Response

	err := r.observe(func() error {
		var err error
		resp, err = r.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(chatRequest{Message: message}).
			Post("/chat")
		return err
	})

	if err != nil {
		return 0, nil, fmt.Errorf("chat relay: %w", err)
	}

	body := resp.Body()

	if json.Valid(body) {
		status := resp.StatusCode()
		if resp.IsSuccess() {
			status = 200
		}
		return status, json.RawMessage(body), nil
	}

	wrapped, err := json.Marshal(map[string]string{"raw": string(body)})

	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode(), wrapped, nil
}
