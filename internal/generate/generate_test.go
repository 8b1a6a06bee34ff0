package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func fakeClaudeResponse(text string) claudeResponse {
	return claudeResponse{Content: []claudeContent{{Type: "text", Text: text}}}
}

func testClient() *Client {
	return &Client{
		APIKey:     "test-key",
		Model:      "claude-sonnet-4-5-20250929",
		MaxRetries: 2,
		HTTPClient: http.DefaultClient,
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		var req claudeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.System == "" {
			t.Error("system prompt missing")
		}
		if len(req.Messages) != 1 {
			t.Fatalf("len(Messages) = %d", len(req.Messages))
		}
		if !strings.Contains(req.Messages[0].Content, "[1] passage one") {
			t.Errorf("prompt missing numbered passage: %q", req.Messages[0].Content)
		}
		json.NewEncoder(w).Encode(fakeClaudeResponse("a generated paragraph"))
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	text, err := testClient().Generate(context.Background(),
		"What is efficient attention?", []string{"passage one", "passage two"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "a generated paragraph" {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	oldBackoff := backoffBase
	backoffBase = time.Millisecond
	defer func() { backoffBase = oldBackoff }()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(fakeClaudeResponse("recovered"))
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	text, err := testClient().Generate(context.Background(), "q", []string{"p"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "recovered" || calls != 2 {
		t.Errorf("text=%q calls=%d", text, calls)
	}
}

func TestGenerateExhaustsRetries(t *testing.T) {
	oldBackoff := backoffBase
	backoffBase = time.Millisecond
	defer func() { backoffBase = oldBackoff }()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	_, err := testClient().Generate(context.Background(), "q", []string{"p"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", calls)
	}
}

func TestGenerateMissingKey(t *testing.T) {
	c := &Client{Model: "m"}
	if _, err := c.Generate(context.Background(), "q", nil); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestGenerateContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Default backoffBase (1 s) exceeds the context budget, so the retry
	// wait must abort promptly.
	start := time.Now()
	_, err := testClient().Generate(ctx, "q", []string{"p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("backoff ignored context cancellation, took %v", elapsed)
	}
}
