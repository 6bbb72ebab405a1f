// Package remote implements the outbound client for the Kaigen API.
// Requests carry bearer authentication, use a fixed timeout and are not
// retried; retry policy belongs to callers.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/rs/zerolog"
)

// CredentialSource supplies the API key used for outbound requests
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// ValidationResult is the remote's answer to an API key validation
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	ProjectID    string   `json:"projectId"`
	UserID       string   `json:"userId"`
	Capabilities []string `json:"capabilities"`
}

// Client talks to the Kaigen API
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	log         zerolog.Logger
}

// NewClient creates a Kaigen API client
func NewClient(cfg *config.KaigenConfig, credentials CredentialSource, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.APIURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		credentials: credentials,
		log:         log.With().Str("component", "kaigen-client").Logger(),
	}
}

// ValidateKey asks the remote whether the stored API key is valid for the site
func (c *Client) ValidateKey(ctx context.Context, siteURL string) (*ValidationResult, error) {
	var result ValidationResult
	err := c.request(ctx, http.MethodPost, "/api/wordpress/validate", map[string]any{
		"wpUrl": siteURL,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TestConnection verifies the project link on the remote side
func (c *Client) TestConnection(ctx context.Context, projectID, siteURL string) error {
	path := fmt.Sprintf("/api/wordpress/%s/test-connection", projectID)
	return c.request(ctx, http.MethodPost, path, map[string]any{
		"wpUrl": siteURL,
	}, nil)
}

// SendStructure pushes the site structure to the remote
func (c *Client) SendStructure(ctx context.Context, projectID, siteURL string, structure any) error {
	path := fmt.Sprintf("/api/wordpress/%s/ingest-content", projectID)
	return c.request(ctx, http.MethodPost, path, map[string]any{
		"wpUrl":     siteURL,
		"structure": structure,
		"content":   []any{},
	}, nil)
}

// SendContent pushes the content library to the remote
func (c *Client) SendContent(ctx context.Context, projectID, siteURL string, content any) error {
	path := fmt.Sprintf("/api/wordpress/%s/ingest-content", projectID)
	return c.request(ctx, http.MethodPost, path, map[string]any{
		"wpUrl":   siteURL,
		"content": content,
	}, nil)
}

// request performs one JSON request against the remote API and decodes the
// response into out when non-nil
func (c *Client) request(ctx context.Context, method, path string, body any, out any) error {
	apiKey, err := c.credentials.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve API key: %w", err)
	}
	if apiKey == "" {
		return fmt.Errorf("no API key configured")
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kaigen request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read kaigen response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = "API request failed"
		}
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("Kaigen API request failed")
		return fmt.Errorf("kaigen API error (status %d): %s", resp.StatusCode, apiErr.Error)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode kaigen response: %w", err)
		}
	}
	return nil
}
