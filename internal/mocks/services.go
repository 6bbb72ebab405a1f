package mocks

import (
	"context"

	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/remote"
)

// MockUpdateService is a mock implementation of UpdateService
type MockUpdateService struct {
	HandleUpdateFn  func(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResponse, error)
	GetUpdateLogsFn func(ctx context.Context, limit int) ([]models.UpdateLogEntry, error)
	HandleCalls     int
}

func (m *MockUpdateService) HandleUpdate(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResponse, error) {
	m.HandleCalls++
	if m.HandleUpdateFn != nil {
		return m.HandleUpdateFn(ctx, req)
	}
	return &models.UpdateResponse{Success: true, PostID: req.PostID}, nil
}

func (m *MockUpdateService) GetUpdateLogs(ctx context.Context, limit int) ([]models.UpdateLogEntry, error) {
	if m.GetUpdateLogsFn != nil {
		return m.GetUpdateLogsFn(ctx, limit)
	}
	return nil, nil
}

// MockContentService is a mock implementation of ContentService
type MockContentService struct {
	ListContentFn       func(ctx context.Context, postType string, page, perPage int) (*models.ContentList, error)
	GetDocumentFn       func(ctx context.Context, postID int64) (document.Document, error)
	GetLinkCandidatesFn func(ctx context.Context, postType string, limit int) ([]models.LinkCandidate, error)
	CountByTypeFn       func(ctx context.Context, postType string) (int, error)
}

func (m *MockContentService) ListContent(ctx context.Context, postType string, page, perPage int) (*models.ContentList, error) {
	if m.ListContentFn != nil {
		return m.ListContentFn(ctx, postType, page, perPage)
	}
	return &models.ContentList{Posts: []models.ContentListItem{}, Page: page, PerPage: perPage}, nil
}

func (m *MockContentService) GetDocument(ctx context.Context, postID int64) (document.Document, error) {
	if m.GetDocumentFn != nil {
		return m.GetDocumentFn(ctx, postID)
	}
	return document.Document{}, nil
}

func (m *MockContentService) GetLinkCandidates(ctx context.Context, postType string, limit int) ([]models.LinkCandidate, error) {
	if m.GetLinkCandidatesFn != nil {
		return m.GetLinkCandidatesFn(ctx, postType, limit)
	}
	return nil, nil
}

func (m *MockContentService) CountByType(ctx context.Context, postType string) (int, error) {
	if m.CountByTypeFn != nil {
		return m.CountByTypeFn(ctx, postType)
	}
	return 0, nil
}

// MockStructureService is a mock implementation of StructureService
type MockStructureService struct {
	GetStructureFn func(ctx context.Context) (*models.SiteStructure, error)
}

func (m *MockStructureService) GetStructure(ctx context.Context) (*models.SiteStructure, error) {
	if m.GetStructureFn != nil {
		return m.GetStructureFn(ctx)
	}
	return &models.SiteStructure{}, nil
}

// MockSettingsService is a mock implementation of SettingsService
type MockSettingsService struct {
	Settings    *models.Settings
	Key         string
	APIKeyError error
	SaveCalls   int
	StoreCalls  int
}

func (m *MockSettingsService) Get(ctx context.Context) (*models.Settings, error) {
	if m.Settings == nil {
		return &models.Settings{EnabledPostTypes: []string{"post", "page"}}, nil
	}
	copied := *m.Settings
	return &copied, nil
}

func (m *MockSettingsService) Save(ctx context.Context, settings *models.Settings) error {
	m.SaveCalls++
	m.Settings = settings
	return nil
}

func (m *MockSettingsService) StoreAPIKey(ctx context.Context, apiKey, apiURL string) error {
	m.StoreCalls++
	m.Key = apiKey
	return nil
}

func (m *MockSettingsService) APIKey(ctx context.Context) (string, error) {
	if m.APIKeyError != nil {
		return "", m.APIKeyError
	}
	return m.Key, nil
}

// MockRemoteService is a mock implementation of RemoteService
type MockRemoteService struct {
	ValidateKeyFn   func(ctx context.Context) (*remote.ValidationResult, error)
	SyncStructureFn func(ctx context.Context) error
	SyncContentFn   func(ctx context.Context) error
}

func (m *MockRemoteService) ValidateKey(ctx context.Context) (*remote.ValidationResult, error) {
	if m.ValidateKeyFn != nil {
		return m.ValidateKeyFn(ctx)
	}
	return &remote.ValidationResult{Valid: true}, nil
}

func (m *MockRemoteService) SyncStructure(ctx context.Context) error {
	if m.SyncStructureFn != nil {
		return m.SyncStructureFn(ctx)
	}
	return nil
}

func (m *MockRemoteService) SyncContent(ctx context.Context) error {
	if m.SyncContentFn != nil {
		return m.SyncContentFn(ctx)
	}
	return nil
}
