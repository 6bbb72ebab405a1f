package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/laurentvergnaud/kaigen-plugin/internal/apperror"
	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/mocks"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/remote"
	"github.com/laurentvergnaud/kaigen-plugin/internal/service"
	"github.com/rs/zerolog"
)

const testAPIKey = "kg_test_key"

func testRouter(t *testing.T) (*gin.Engine, *mocks.MockUpdateService, *mocks.MockSettingsService) {
	t.Helper()

	updateSvc := &mocks.MockUpdateService{}
	settingsSvc := &mocks.MockSettingsService{Key: testAPIKey}

	services := &service.Services{
		Update:    updateSvc,
		Content:   &mocks.MockContentService{},
		Structure: &mocks.MockStructureService{},
		Settings:  settingsSvc,
		Remote:    &mocks.MockRemoteService{},
	}

	cfg := &config.Config{
		Site: config.SiteConfig{
			URL:              "https://example.com",
			EnabledPostTypes: []string{"post", "page"},
		},
	}

	return NewRouter(services, cfg, zerolog.Nop()), updateSvc, settingsSvc
}

func doRequest(router *gin.Engine, method, path, auth string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := testRouter(t)

	w := doRequest(router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", resp["status"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		auth     string
		wantCode int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"unsupported scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong key", "Bearer wrong-key", http.StatusUnauthorized},
		{"bearer scheme", "Bearer " + testAPIKey, http.StatusOK},
		{"apikey scheme", "ApiKey " + testAPIKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, _ := testRouter(t)

			w := doRequest(router, http.MethodGet, "/kaigen/v1/structure", tt.auth, nil)
			if w.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d", tt.wantCode, w.Code)
			}
		})
	}
}

func TestAuthMiddlewareNoKeyConfigured(t *testing.T) {
	router, _, settingsSvc := testRouter(t)
	settingsSvc.Key = ""

	w := doRequest(router, http.MethodGet, "/kaigen/v1/structure", "Bearer anything", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 when no key is configured, got %d", w.Code)
	}
}

func TestUpdatePost(t *testing.T) {
	auth := "Bearer " + testAPIKey
	body := []byte(`{"schema_version": 2, "changes": {"post": {"title": "New"}}}`)

	t.Run("success", func(t *testing.T) {
		router, updateSvc, _ := testRouter(t)
		updateSvc.HandleUpdateFn = func(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResponse, error) {
			if req.PostID != 42 {
				t.Errorf("Expected path id bound onto the request, got %d", req.PostID)
			}
			return &models.UpdateResponse{Success: true, PostID: 42, URL: "https://example.com/p"}, nil
		}

		w := doRequest(router, http.MethodPost, "/kaigen/v1/content/42", auth, body)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp models.UpdateResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid response body: %v", err)
		}
		if !resp.Success || resp.PostID != 42 {
			t.Errorf("Unexpected response %+v", resp)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		router, updateSvc, _ := testRouter(t)

		w := doRequest(router, http.MethodPost, "/kaigen/v1/content/abc", auth, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
		if updateSvc.HandleCalls != 0 {
			t.Error("Expected no service call for an invalid id")
		}
	})

	t.Run("invalid json body", func(t *testing.T) {
		router, _, _ := testRouter(t)

		w := doRequest(router, http.MethodPost, "/kaigen/v1/content/42", auth, []byte(`{`))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("typed errors map to status codes", func(t *testing.T) {
		cases := []struct {
			kind     apperror.Kind
			wantCode int
		}{
			{apperror.PostNotFound, http.StatusNotFound},
			{apperror.InvalidSchemaVersion, http.StatusBadRequest},
			{apperror.InsufficientPermissions, http.StatusForbidden},
			{apperror.ValidationFailed, http.StatusUnprocessableEntity},
			{apperror.PersistenceFailed, http.StatusInternalServerError},
		}

		for _, tc := range cases {
			router, updateSvc, _ := testRouter(t)
			kind := tc.kind
			updateSvc.HandleUpdateFn = func(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResponse, error) {
				return nil, apperror.New(kind, "boom")
			}

			w := doRequest(router, http.MethodPost, "/kaigen/v1/content/42", auth, body)
			if w.Code != tc.wantCode {
				t.Errorf("Kind %s: expected %d, got %d", tc.kind, tc.wantCode, w.Code)
			}

			var resp map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Invalid response body: %v", err)
			}
			if resp["code"] != string(tc.kind) {
				t.Errorf("Expected error code %s, got %v", tc.kind, resp["code"])
			}
		}
	})

	t.Run("untyped errors are hidden", func(t *testing.T) {
		router, updateSvc, _ := testRouter(t)
		updateSvc.HandleUpdateFn = func(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResponse, error) {
			return nil, context.DeadlineExceeded
		}

		w := doRequest(router, http.MethodPost, "/kaigen/v1/content/42", auth, body)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", w.Code)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("deadline")) {
			t.Error("Expected internal error detail hidden from the response")
		}
	})
}

func TestGetPost(t *testing.T) {
	auth := "Bearer " + testAPIKey

	t.Run("not found", func(t *testing.T) {
		services := &service.Services{
			Update:    &mocks.MockUpdateService{},
			Structure: &mocks.MockStructureService{},
			Settings:  &mocks.MockSettingsService{Key: testAPIKey},
			Remote:    &mocks.MockRemoteService{},
			Content: &mocks.MockContentService{
				GetDocumentFn: func(ctx context.Context, postID int64) (document.Document, error) {
					return nil, apperror.New(apperror.PostNotFound, "post 42 not found")
				},
			},
		}
		router := NewRouter(services, &config.Config{Site: config.SiteConfig{URL: "https://example.com"}}, zerolog.Nop())

		w := doRequest(router, http.MethodGet, "/kaigen/v1/content/42", auth, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		router, _, _ := testRouter(t)

		w := doRequest(router, http.MethodGet, "/kaigen/v1/content/0", auth, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestSaveSettings(t *testing.T) {
	auth := "Bearer " + testAPIKey
	router, _, settingsSvc := testRouter(t)

	body := []byte(`{"seo_plugin": "rankmath", "api_key": "kg_new_key"}`)
	w := doRequest(router, http.MethodPut, "/kaigen/v1/settings", auth, body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if settingsSvc.SaveCalls != 1 {
		t.Errorf("Expected one save, got %d", settingsSvc.SaveCalls)
	}
	if settingsSvc.StoreCalls != 1 {
		t.Errorf("Expected the API key stored, got %d store calls", settingsSvc.StoreCalls)
	}
	if settingsSvc.Settings.SEOPlugin != "rankmath" {
		t.Errorf("Expected SEO plugin saved, got %q", settingsSvc.Settings.SEOPlugin)
	}

	// The stored credential never appears in the response
	if bytes.Contains(w.Body.Bytes(), []byte("kg_new_key")) {
		t.Error("Expected API key absent from the response")
	}
}

func TestGetUpdateLogs(t *testing.T) {
	router, updateSvc, _ := testRouter(t)
	updateSvc.GetUpdateLogsFn = func(ctx context.Context, limit int) ([]models.UpdateLogEntry, error) {
		if limit != 5 {
			t.Errorf("Expected limit 5, got %d", limit)
		}
		return []models.UpdateLogEntry{{ID: "a", PostID: 42}}, nil
	}

	w := doRequest(router, http.MethodGet, "/kaigen/v1/logs?limit=5", "Bearer "+testAPIKey, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Logs  []models.UpdateLogEntry `json:"logs"`
		Total int                     `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp.Total != 1 || len(resp.Logs) != 1 || resp.Logs[0].ID != "a" {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestValidateKeyRemoteFailure(t *testing.T) {
	services := &service.Services{
		Update:    &mocks.MockUpdateService{},
		Content:   &mocks.MockContentService{},
		Structure: &mocks.MockStructureService{},
		Settings:  &mocks.MockSettingsService{Key: testAPIKey},
		Remote: &mocks.MockRemoteService{
			ValidateKeyFn: func(ctx context.Context) (*remote.ValidationResult, error) {
				return nil, context.DeadlineExceeded
			},
		},
	}
	router := NewRouter(services, &config.Config{Site: config.SiteConfig{URL: "https://example.com"}}, zerolog.Nop())

	w := doRequest(router, http.MethodPost, "/kaigen/v1/settings/validate-key", "Bearer "+testAPIKey, nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", w.Code)
	}
}
