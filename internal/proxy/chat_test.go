package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatRelaySend(t *testing.T) {
	tests := []struct {
		name           string
		upstreamStatus int
		upstreamBody   string
		wantStatus     int
		wantBody       string
	}{
		{
			name:           "json answer is forwarded as-is with 200",
			upstreamStatus: http.StatusOK,
			upstreamBody:   `{"reply":"take it with food"}`,
			wantStatus:     http.StatusOK,
			wantBody:       `{"reply":"take it with food"}`,
		},
		{
			name:           "successful non-200 still reads as 200",
			upstreamStatus: http.StatusCreated,
			upstreamBody:   `{"reply":"ok"}`,
			wantStatus:     http.StatusOK,
			wantBody:       `{"reply":"ok"}`,
		},
		{
			name:           "upstream json error mirrors its status",
			upstreamStatus: http.StatusTooManyRequests,
			upstreamBody:   `{"error":"rate limited"}`,
			wantStatus:     http.StatusTooManyRequests,
			wantBody:       `{"error":"rate limited"}`,
		},
		{
			name:           "plain text is wrapped as raw",
			upstreamStatus: http.StatusOK,
			upstreamBody:   "hello there",
			wantStatus:     http.StatusOK,
			wantBody:       `{"raw":"hello there"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/chat" {
					t.Errorf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
				}

				var req chatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("upstream received a non-json body: %v", err)
				}
				if req.Message != "what about aspirin" {
					t.Errorf("upstream received message %q", req.Message)
				}

				w.WriteHeader(tc.upstreamStatus)
				_, _ = w.Write([]byte(tc.upstreamBody))
			}))
			defer srv.Close()

			relay := NewChatRelay(srv.URL, nil)

			status, body, err := relay.Send(context.Background(), "what about aspirin")

			if err != nil {
				t.Fatalf("Send(): %v", err)
			}
			if status != tc.wantStatus {
				t.Fatalf("Send() status = %d, want %d", status, tc.wantStatus)
			}
			if string(body) != tc.wantBody {
				t.Fatalf("Send() body = %s, want %s", body, tc.wantBody)
			}
		})
	}
}

func TestChatRelayNotConfigured(t *testing.T) {
	relay := NewChatRelay("", nil)

	_, _, err := relay.Send(context.Background(), "anyone there")

	if !errors.Is(err, ErrChatNotConfigured) {
		t.Fatalf("Send() err = %v, want ErrChatNotConfigured", err)
	}
}

func TestChatRelayUnreachableUpstream(t *testing.T) {
	// a closed server produces a transport error, not a wrapped body
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	relay := NewChatRelay(srv.URL, nil)

	_, _, err := relay.Send(context.Background(), "hello")

	if err == nil {
		t.Fatal("Send() against a dead upstream must fail")
	}
}
