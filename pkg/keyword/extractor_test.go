package keyword

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func TestExtractPrimaryKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("request body not JSON: %v", err)
		}
		// Temperature must be serialized explicitly, even at zero.
		if _, ok := req["temperature"]; !ok {
			t.Error("request is missing explicit temperature field")
		}
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "  \"refund\"  "}}]}`)
	}))
	defer server.Close()

	e := NewExtractor(server.URL, "k", "test-model", nopLogger{})
	kw, err := e.ExtractPrimaryKeyword(context.Background(), "what is the refund policy?")
	if err != nil {
		t.Fatalf("ExtractPrimaryKeyword returned error: %v", err)
	}
	if kw != "refund" {
		t.Errorf("keyword = %q, want %q (trimmed, de-quoted)", kw, "refund")
	}
}

func TestExtractPrimaryKeywordDegrades(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `not json at all`)
		}},
		{"empty choices", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices": []}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			e := NewExtractor(server.URL, "k", "test-model", nopLogger{})
			kw, err := e.ExtractPrimaryKeyword(context.Background(), "q")
			if err != nil {
				t.Fatalf("degrade case must not error, got: %v", err)
			}
			if kw != "" {
				t.Errorf("keyword = %q, want empty on degrade", kw)
			}
		})
	}
}

func TestExtractPrimaryKeywordCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExtractor(server.URL, "k", "test-model", nopLogger{})
	if _, err := e.ExtractPrimaryKeyword(ctx, "q"); err == nil {
		t.Error("cancelled context must surface as an error, not a silent empty keyword")
	}
}
