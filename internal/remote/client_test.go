package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/rs/zerolog"
)

type staticCredentials struct {
	key string
	err error
}

func (s staticCredentials) APIKey(ctx context.Context) (string, error) {
	return s.key, s.err
}

func newTestClient(serverURL, apiKey string) *Client {
	cfg := &config.KaigenConfig{
		APIURL:         serverURL,
		RequestTimeout: 5 * time.Second,
	}
	return NewClient(cfg, staticCredentials{key: apiKey}, zerolog.Nop())
}

func TestValidateKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/wordpress/validate" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer kg_key" {
			t.Errorf("Unexpected auth header %q", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Invalid request body: %v", err)
		}
		if body["wpUrl"] != "https://example.com" {
			t.Errorf("Unexpected wpUrl %v", body["wpUrl"])
		}

		json.NewEncoder(w).Encode(ValidationResult{
			Valid:     true,
			ProjectID: "proj-1",
			UserID:    "user-9",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, "kg_key")
	result, err := client.ValidateKey(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("ValidateKey failed: %v", err)
	}
	if !result.Valid || result.ProjectID != "proj-1" {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestRequestErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "key revoked"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, "kg_key")
	_, err := client.ValidateKey(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("Expected error for a 403 response")
	}
	if got := err.Error(); got != "kaigen API error (status 403): key revoked" {
		t.Errorf("Unexpected error message %q", got)
	}
}

func TestRequestErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "kg_key")
	err := client.TestConnection(context.Background(), "proj-1", "https://example.com")
	if err == nil {
		t.Fatal("Expected error for a 502 response")
	}
	if got := err.Error(); got != "kaigen API error (status 502): API request failed" {
		t.Errorf("Unexpected error message %q", got)
	}
}

func TestRequestRequiresAPIKey(t *testing.T) {
	client := newTestClient("https://kaigen.invalid", "")
	_, err := client.ValidateKey(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("Expected error without an API key")
	}
}

func TestRequestCredentialFailure(t *testing.T) {
	cfg := &config.KaigenConfig{APIURL: "https://kaigen.invalid", RequestTimeout: time.Second}
	client := NewClient(cfg, staticCredentials{err: errors.New("vault down")}, zerolog.Nop())

	err := client.TestConnection(context.Background(), "proj-1", "https://example.com")
	if err == nil {
		t.Fatal("Expected error when credentials cannot be resolved")
	}
}

func TestSendContentPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "kg_key")
	if err := client.SendContent(context.Background(), "proj-1", "https://example.com", []any{}); err != nil {
		t.Fatalf("SendContent failed: %v", err)
	}
	if gotPath != "/api/wordpress/proj-1/ingest-content" {
		t.Errorf("Unexpected path %q", gotPath)
	}
}
