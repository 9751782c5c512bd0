package ragflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(url string) *Client {
	c := NewClient(url, "test-key", "chat-1")
	return c
}

func TestCreateSession(t *testing.T) {
	var gotAuth string
	var gotName string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotName = body["name"]
		fmt.Fprint(w, `{"code": 0, "data": {"id": "sess-123"}}`)
	}))
	defer server.Close()

	id, err := newTestClient(server.URL).CreateSession(context.Background(), "New session")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if id != "sess-123" {
		t.Errorf("session id = %q, want %q", id, "sess-123")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
	if gotName != "New session" {
		t.Errorf("session name = %q", gotName)
	}
}

func TestCreateSessionBackendRejection(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"non-zero code", `{"code": 102, "message": "chat not found"}`},
		{"missing id", `{"code": 0, "data": {}}`},
		{"not json", `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).CreateSession(context.Background(), "x")
			var scErr *SessionCreationError
			if !errors.As(err, &scErr) {
				t.Fatalf("error = %v, want *SessionCreationError", err)
			}
		})
	}
}

func TestProbeSessionExtractsID(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"plain json", `{"code": 0, "data": {"session_id": "sess-9", "answer": "ignored"}}`},
		{"data-framed", `data: {"code": 0, "data": {"session_id": "sess-9", "answer": "ignored"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req completionRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.SessionID != "" {
					t.Errorf("probe must not carry a session id, got %q", req.SessionID)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			id, err := newTestClient(server.URL).ProbeSession(context.Background(), "refund policy")
			if err != nil {
				t.Fatalf("ProbeSession returned error: %v", err)
			}
			if id != "sess-9" {
				t.Errorf("session id = %q, want %q", id, "sess-9")
			}
		})
	}
}

func TestProbeSessionMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": 0, "data": {"answer": "no id here"}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ProbeSession(context.Background(), "q")
	var scErr *SessionCreationError
	if !errors.As(err, &scErr) {
		t.Fatalf("error = %v, want *SessionCreationError", err)
	}
}

func TestCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("blocking completion must send stream=false")
		}
		if req.SessionID != "sess-1" {
			t.Errorf("session id = %q, want sess-1", req.SessionID)
		}
		fmt.Fprint(w, `{"code": 0, "data": {"answer": "42", "reference": {"doc_aggs": [{"doc_name": "policy.md"}]}}}`)
	}))
	defer server.Close()

	data, err := newTestClient(server.URL).Completion(context.Background(), "q", "sess-1")
	if err != nil {
		t.Fatalf("Completion returned error: %v", err)
	}
	if data.Answer != "42" {
		t.Errorf("answer = %q, want %q", data.Answer, "42")
	}
	if data.Reference == nil || len(data.Reference.DocAggs) != 1 || data.Reference.DocAggs[0].DocName != "policy.md" {
		t.Errorf("doc_aggs not decoded: %+v", data.Reference)
	}
}

func TestCompletionUpstreamFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusBadGateway, "bad gateway"},
		{"backend code", http.StatusOK, `{"code": 100, "message": "internal"}`},
		{"nil data", http.StatusOK, `{"code": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Completion(context.Background(), "q", "s")
			var upErr *UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("error = %v, want *UpstreamError", err)
			}
		})
	}
}

func TestStreamAnswerNormalizesAndTerminates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintln(w, `data: {"code": 0, "data": {"answer": "Hi"}}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `data: {"code": 0, "data": {"answer": "Hi there"}}`)
		fmt.Fprintln(w, `data: {"code": 0, "data": true}`)
	}))
	defer server.Close()

	deltas, err := newTestClient(server.URL).StreamAnswer(context.Background(), "q", "sess-1")
	if err != nil {
		t.Fatalf("StreamAnswer returned error: %v", err)
	}

	var lines []string
	for line := range deltas {
		lines = append(lines, line)
	}

	if len(lines) != 3 {
		t.Fatalf("received %d lines, want 2 deltas + terminal marker: %v", len(lines), lines)
	}
	if got := decodeDelta(t, lines[0]).Data.Answer; got != "Hi" {
		t.Errorf("first delta = %q, want %q", got, "Hi")
	}
	if got := decodeDelta(t, lines[1]).Data.Answer; got != " there" {
		t.Errorf("second delta = %q, want %q", got, " there")
	}
	if lines[2] != TerminalChunk {
		t.Errorf("stream must end with the terminal marker, got %q", lines[2])
	}
}

func TestStreamAnswerCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `data: {"code": 0, "data": {"answer": "partial"}}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	deltas, err := newTestClient(server.URL).StreamAnswer(ctx, "q", "sess-1")
	if err != nil {
		t.Fatalf("StreamAnswer returned error: %v", err)
	}

	<-deltas // first delta arrives
	cancel()

	// After cancellation the channel must close without the terminal marker
	// hanging forever.
	for range deltas {
	}
}

func TestStreamAnswerUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "missing api key")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).StreamAnswer(context.Background(), "q", "s")
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
}
