package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/tabscore/internal/logger"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ClientOption
		wantURL string
	}{
		{
			name:    "default client",
			opts:    nil,
			wantURL: DefaultEndpoint,
		},
		{
			name:    "custom endpoint",
			opts:    []ClientOption{WithEndpoint("http://custom:8080")},
			wantURL: "http://custom:8080",
		},
		{
			name:    "with logger",
			opts:    []ClientOption{WithLogger(logger.NewNop())},
			wantURL: DefaultEndpoint,
		},
		{
			name:    "with timeout",
			opts:    []ClientOption{WithTimeout(10 * time.Second)},
			wantURL: DefaultEndpoint,
		},
		{
			name:    "with retries",
			opts:    []ClientOption{WithMaxRetries(5), WithRetryDelay(2 * time.Second)},
			wantURL: DefaultEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.opts...)
			if client == nil {
				t.Fatal("expected client to be created")
			}
			if client.Endpoint() != tt.wantURL {
				t.Errorf("endpoint = %v, want %v", client.Endpoint(), tt.wantURL)
			}
		})
	}
}

func TestClient_Embed(t *testing.T) {
	tests := []struct {
		name       string
		texts      []string
		mockStatus int
		mockBody   string
		wantErr    bool
		wantLen    int
	}{
		{
			name:       "successful embedding",
			texts:      []string{"Net sales", "Revenue"},
			mockStatus: http.StatusOK,
			mockBody:   `{"model":"nomic-embed-text","embeddings":[[0.1,0.2,0.3],[0.3,0.2,0.1]]}`,
			wantLen:    2,
		},
		{
			name:       "count mismatch",
			texts:      []string{"a", "b"},
			mockStatus: http.StatusOK,
			mockBody:   `{"embeddings":[[1,0]]}`,
			wantErr:    true,
		},
		{
			name:       "model not found",
			texts:      []string{"a"},
			mockStatus: http.StatusNotFound,
			mockBody:   `{"error":"model \"missing\" not found, try pulling it first"}`,
			wantErr:    true,
		},
		{
			name:       "invalid json",
			texts:      []string{"a"},
			mockStatus: http.StatusOK,
			mockBody:   `{not json`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/embed" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}

				var req EmbedRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if len(req.Input) != len(tt.texts) {
					t.Errorf("request input = %v, want %v", req.Input, tt.texts)
				}

				w.WriteHeader(tt.mockStatus)
				w.Write([]byte(tt.mockBody))
			}))
			defer server.Close()

			client := NewClient(WithEndpoint(server.URL), WithMaxRetries(0), WithLogger(logger.NewNop()))
			got, err := client.Embed(context.Background(), "nomic-embed-text", tt.texts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Embed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.wantLen {
				t.Errorf("len(Embed()) = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestClient_EmbedEmptyInput(t *testing.T) {
	client := NewClient(WithEndpoint("http://127.0.0.1:1"), WithMaxRetries(0))

	got, err := client.Embed(context.Background(), "m", nil)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(Embed()) = %d, want 0", len(got))
	}
}

func TestClient_HasModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest","model":"nomic-embed-text:latest"},{"name":"bge-m3:567m"}]}`))
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL), WithLogger(logger.NewNop()))

	tests := []struct {
		name string
		want bool
	}{
		{"nomic-embed-text", true},
		{"nomic-embed-text:latest", true},
		{"bge-m3:567m", true},
		{"bge-m3", true},
		{"bge-m3:latest", false},
		{"bge", false},
		{"all-minilm", false},
	}

	for _, tt := range tests {
		got, err := client.HasModel(context.Background(), tt.name)
		if err != nil {
			t.Fatalf("HasModel() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("HasModel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClient_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		mockStatus int
		wantErr    bool
	}{
		{
			name:       "healthy",
			mockStatus: http.StatusOK,
			wantErr:    false,
		},
		{
			name:       "unhealthy",
			mockStatus: http.StatusServiceUnavailable,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.mockStatus)
			}))
			defer server.Close()

			client := NewClient(WithEndpoint(server.URL))
			err := client.HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_Retry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"embeddings":[[1,2,3]]}`))
	}))
	defer server.Close()

	client := NewClient(
		WithEndpoint(server.URL),
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
		WithLogger(logger.NewNop()),
	)

	got, err := client.Embed(context.Background(), "m", []string{"x"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got) != 1 || len(got[0]) != 3 {
		t.Errorf("Embed() = %v", got)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestClient_RetriesExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer server.Close()

	client := NewClient(
		WithEndpoint(server.URL),
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond),
		WithLogger(logger.NewNop()),
	)

	_, err := client.Embed(context.Background(), "m", []string{"x"})
	if err == nil {
		t.Fatal("expected error after retries")
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("error should carry server message, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL), WithLogger(logger.NewNop()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Embed(ctx, "m", []string{"x"})
	if err == nil {
		t.Error("expected context cancellation error")
	}
}
