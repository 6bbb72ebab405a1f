package service

import (
	"context"

	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/remote"
	"github.com/laurentvergnaud/kaigen-plugin/internal/repository"
	"github.com/rs/zerolog"
)

// DocumentService builds canonical schema-version-2 documents from storage
type DocumentService interface {
	Build(ctx context.Context, postID int64, opts models.BuildOptions) (document.Document, error)
}

// UpdateService applies patch updates to content items
type UpdateService interface {
	HandleUpdate(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResponse, error)
	GetUpdateLogs(ctx context.Context, limit int) ([]models.UpdateLogEntry, error)
}

// ContentService exposes the content library
type ContentService interface {
	ListContent(ctx context.Context, postType string, page, perPage int) (*models.ContentList, error)
	GetDocument(ctx context.Context, postID int64) (document.Document, error)
	GetLinkCandidates(ctx context.Context, postType string, limit int) ([]models.LinkCandidate, error)
	CountByType(ctx context.Context, postType string) (int, error)
}

// StructureService builds the site structure discovery payload
type StructureService interface {
	GetStructure(ctx context.Context) (*models.SiteStructure, error)
}

// SettingsService reads and writes connector settings
type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
	StoreAPIKey(ctx context.Context, apiKey, apiURL string) error
	APIKey(ctx context.Context) (string, error)
}

// RemoteService talks to the Kaigen SaaS on behalf of the site
type RemoteService interface {
	ValidateKey(ctx context.Context) (*remote.ValidationResult, error)
	SyncStructure(ctx context.Context) error
	SyncContent(ctx context.Context) error
}

// CustomFieldStore is an optional plugin-style custom fields integration.
// When absent, ACF-style fields fall back to the generic metadata store.
type CustomFieldStore interface {
	Fields(ctx context.Context, postID int64) (map[string]any, error)
	UpdateField(ctx context.Context, postID int64, key string, value any) error
	DeleteField(ctx context.Context, postID int64, key string) error
}

// Services holds all service interfaces
type Services struct {
	Document  DocumentService
	Update    UpdateService
	Content   ContentService
	Structure StructureService
	Settings  SettingsService
	Remote    RemoteService
}

// NewServices creates all services. cfStore may be nil when no custom
// fields integration is installed.
func NewServices(repos *repository.Repositories, cfg *config.Config, cfStore CustomFieldStore, log zerolog.Logger) *Services {
	settingsSvc := newSettingsService(repos.Option, cfg, log)
	docSvc := newDocumentService(repos, settingsSvc, cfg, cfStore, log)
	contentSvc := newContentService(repos, docSvc, settingsSvc, cfg, log)
	structureSvc := newStructureService(repos, settingsSvc, cfg, log)
	updateSvc := newUpdateService(repos, docSvc, settingsSvc, cfStore, log)

	client := remote.NewClient(&cfg.Kaigen, settingsSvc, log)
	remoteSvc := newRemoteService(client, structureSvc, contentSvc, settingsSvc, cfg, log)

	return &Services{
		Document:  docSvc,
		Update:    updateSvc,
		Content:   contentSvc,
		Structure: structureSvc,
		Settings:  settingsSvc,
		Remote:    remoteSvc,
	}
}
