package service

import (
	"context"
	"fmt"

	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/remote"
	"github.com/rs/zerolog"
)

// remoteService pushes site data to the Kaigen SaaS using the stored
// project binding
type remoteService struct {
	client    *remote.Client
	structure StructureService
	content   ContentService
	settings  SettingsService
	cfg       *config.Config
	log       zerolog.Logger
}

func newRemoteService(client *remote.Client, structure StructureService, content ContentService, settings SettingsService, cfg *config.Config, log zerolog.Logger) *remoteService {
	return &remoteService{
		client:    client,
		structure: structure,
		content:   content,
		settings:  settings,
		cfg:       cfg,
		log:       log.With().Str("service", "remote").Logger(),
	}
}

// ValidateKey validates the stored API key with the remote
func (s *remoteService) ValidateKey(ctx context.Context) (*remote.ValidationResult, error) {
	result, err := s.client.ValidateKey(ctx, s.cfg.Site.URL)
	if err != nil {
		return nil, err
	}

	// Remember the project binding the remote reports
	if result.Valid && result.ProjectID != "" {
		settings, err := s.settings.Get(ctx)
		if err == nil && settings.ProjectID != result.ProjectID {
			settings.ProjectID = result.ProjectID
			if err := s.settings.Save(ctx, settings); err != nil {
				s.log.Warn().Err(err).Msg("Failed to store project binding")
			}
		}
	}

	return result, nil
}

// SyncStructure pushes the site structure to the remote
func (s *remoteService) SyncStructure(ctx context.Context) error {
	projectID, err := s.projectID(ctx)
	if err != nil {
		return err
	}

	structure, err := s.structure.GetStructure(ctx)
	if err != nil {
		return err
	}

	if err := s.client.SendStructure(ctx, projectID, s.cfg.Site.URL, structure); err != nil {
		return err
	}
	s.log.Info().Str("project_id", projectID).Msg("Site structure synced")
	return nil
}

// SyncContent pushes the content library to the remote, one page at a time
func (s *remoteService) SyncContent(ctx context.Context) error {
	projectID, err := s.projectID(ctx)
	if err != nil {
		return err
	}

	page := 1
	sent := 0
	for {
		list, err := s.content.ListContent(ctx, "", page, 100)
		if err != nil {
			return err
		}
		if len(list.Posts) == 0 {
			break
		}

		if err := s.client.SendContent(ctx, projectID, s.cfg.Site.URL, list.Posts); err != nil {
			return err
		}
		sent += len(list.Posts)

		if page >= list.TotalPages {
			break
		}
		page++
	}

	s.log.Info().Str("project_id", projectID).Int("posts", sent).Msg("Content library synced")
	return nil
}

func (s *remoteService) projectID(ctx context.Context) (string, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	if settings.ProjectID == "" {
		return "", fmt.Errorf("no project is linked; validate the API key first")
	}
	return settings.ProjectID, nil
}
