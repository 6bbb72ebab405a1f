package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/laurentvergnaud/kaigen-plugin/internal/apperror"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/repository"
	"github.com/rs/zerolog"
)

const (
	updateLogsOptionKey = "kaigen_update_logs"
	updateLogsCap       = 100
)

// updateService orchestrates one update request: request-shape checks,
// capability gate, build, merge, validate, persist, rebuild. The sequence
// is synchronous and request-scoped with no internal parallelism.
type updateService struct {
	repos     *repository.Repositories
	builder   DocumentService
	settings  SettingsService
	persister *persister
	log       zerolog.Logger
}

func newUpdateService(repos *repository.Repositories, builder DocumentService, settings SettingsService, cfStore CustomFieldStore, log zerolog.Logger) *updateService {
	return &updateService{
		repos:     repos,
		builder:   builder,
		settings:  settings,
		persister: newPersister(repos, cfStore, log),
		log:       log.With().Str("service", "update").Logger(),
	}
}

// HandleUpdate applies a partial document patch to a content item and
// returns the authoritative post-write document
func (s *updateService) HandleUpdate(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResponse, error) {
	// Structural checks come first, before any storage access
	if req.PostID == 0 {
		return nil, apperror.New(apperror.MissingPostID, "post_id is required")
	}
	if req.SchemaVersion != document.SchemaVersion {
		return nil, apperror.New(apperror.InvalidSchemaVersion,
			fmt.Sprintf("schema_version must be %d, got %d", document.SchemaVersion, req.SchemaVersion))
	}
	patch, err := decodeChanges(req.Changes)
	if err != nil {
		return nil, err
	}

	post, err := s.repos.Post.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, apperror.Wrap(apperror.DocumentBuildFailed, "failed to load post", err)
	}
	if post == nil {
		return nil, apperror.New(apperror.PostNotFound, fmt.Sprintf("post %d not found", req.PostID))
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.DocumentBuildFailed, "failed to load settings", err)
	}
	if !settings.PostTypeEnabled(post.PostType) {
		return nil, apperror.New(apperror.InsufficientPermissions,
			fmt.Sprintf("post type %q is not enabled for updates", post.PostType))
	}

	opts := models.BuildOptions{
		ProjectID:  req.ProjectID,
		PlatformID: req.PlatformID,
		SiteURL:    req.SiteURL,
	}

	doc, err := s.builder.Build(ctx, req.PostID, opts)
	if err != nil {
		return nil, err
	}

	merged := document.Merge(doc, patch)

	if err := document.Validate(merged); err != nil {
		return nil, err
	}

	steps, err := s.persister.Persist(ctx, req.PostID, merged)
	if err != nil {
		return nil, err
	}

	// Re-read the authoritative state rather than returning the in-memory
	// merged document, so storage-level normalization (slug collision
	// resolution and the like) is reflected in the response
	rebuilt, err := s.builder.Build(ctx, req.PostID, opts)
	if err != nil {
		return nil, err
	}

	s.appendUpdateLog(ctx, post, patch)

	url := ""
	if postSection, ok := rebuilt.Section(document.SectionPost); ok {
		url, _ = document.AsString(postSection["url"])
	}

	s.log.Info().
		Int64("post_id", req.PostID).
		Int("steps", len(steps)).
		Msg("Document update applied")

	return &models.UpdateResponse{
		Success:  true,
		PostID:   req.PostID,
		URL:      url,
		Steps:    steps,
		Document: rebuilt,
	}, nil
}

// decodeChanges parses the changes payload, rejecting anything that is not
// a JSON object
func decodeChanges(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, apperror.New(apperror.InvalidChangesShape, "changes object is required")
	}

	var patch map[string]any
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, apperror.Wrap(apperror.InvalidChangesShape, "changes must be an object", err)
	}
	if patch == nil {
		return nil, apperror.New(apperror.InvalidChangesShape, "changes must be an object")
	}
	return patch, nil
}

// appendUpdateLog records the update in the activity log, best-effort
func (s *updateService) appendUpdateLog(ctx context.Context, post *models.Post, patch map[string]any) {
	logs, err := s.loadUpdateLogs(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load update logs")
		return
	}

	changed := make([]string, 0, len(patch))
	for section := range patch {
		changed = append(changed, section)
	}
	sort.Strings(changed)

	logs = append(logs, models.UpdateLogEntry{
		ID:        uuid.New().String(),
		PostID:    post.ID,
		PostTitle: post.Title,
		Changes:   changed,
		Timestamp: time.Now().UTC(),
	})

	// Keep only the most recent entries
	if len(logs) > updateLogsCap {
		logs = logs[len(logs)-updateLogsCap:]
	}

	if err := s.repos.Option.Set(ctx, updateLogsOptionKey, logs); err != nil {
		s.log.Warn().Err(err).Msg("Failed to store update logs")
	}
}

// GetUpdateLogs returns the most recent update log entries, newest first
func (s *updateService) GetUpdateLogs(ctx context.Context, limit int) ([]models.UpdateLogEntry, error) {
	if limit < 1 {
		limit = 50
	}

	logs, err := s.loadUpdateLogs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.UpdateLogEntry, 0, limit)
	for i := len(logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, logs[i])
	}
	return out, nil
}

func (s *updateService) loadUpdateLogs(ctx context.Context) ([]models.UpdateLogEntry, error) {
	raw, err := s.repos.Option.Get(ctx, updateLogsOptionKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var logs []models.UpdateLogEntry
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode update logs: %w", err)
	}
	return logs, nil
}
