package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/repository"
	"github.com/rs/zerolog"
)

// postTypeLabels maps the built-in post types to display labels
var postTypeLabels = map[string]string{
	"post": "Posts",
	"page": "Pages",
}

// structureService builds the site structure discovery payload
type structureService struct {
	repos    *repository.Repositories
	settings SettingsService
	cfg      *config.Config
	log      zerolog.Logger
}

func newStructureService(repos *repository.Repositories, settings SettingsService, cfg *config.Config, log zerolog.Logger) *structureService {
	return &structureService{
		repos:    repos,
		settings: settings,
		cfg:      cfg,
		log:      log.With().Str("service", "structure").Logger(),
	}
}

// GetStructure describes the site's content structure: post types with
// counts and taxonomies, discovered custom fields per enabled type, and
// editor/SEO configuration
func (s *structureService) GetStructure(ctx context.Context) (*models.SiteStructure, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	postTypes, err := s.repos.Post.PostTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list post types: %w", err)
	}

	taxonomies, err := s.repos.Taxonomy.Taxonomies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list taxonomies: %w", err)
	}

	typeInfos := make([]models.PostTypeInfo, 0, len(postTypes))
	for _, t := range postTypes {
		count, err := s.repos.Post.CountByType(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("failed to count posts of type %q: %w", t, err)
		}
		typeInfos = append(typeInfos, models.PostTypeInfo{
			Slug:       t,
			Label:      labelFor(t),
			Taxonomies: taxonomies,
			Count:      count,
			Enabled:    settings.PostTypeEnabled(t),
		})
	}

	customFields := make(map[string][]models.CustomFieldInfo, len(settings.EnabledPostTypes))
	for _, t := range settings.EnabledPostTypes {
		keys, err := s.repos.Meta.Keys(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("failed to list meta keys for %q: %w", t, err)
		}

		fields := make([]models.CustomFieldInfo, 0, len(keys))
		for _, key := range keys {
			// Internal and SEO plugin meta is not a custom field
			if strings.HasPrefix(key, "_") || document.IsSEOMetaKey(key) {
				continue
			}
			fields = append(fields, models.CustomFieldInfo{
				Key:    key,
				Label:  labelFor(key),
				Type:   "text",
				Source: "meta",
			})
		}
		customFields[t] = fields
	}

	return &models.SiteStructure{
		PostTypes:    typeInfos,
		CustomFields: customFields,
		EditorType:   settings.EditorType,
		SEOPlugin:    settings.SEOPlugin,
		SiteURL:      s.cfg.Site.URL,
		SiteName:     s.cfg.Site.Name,
	}, nil
}

// labelFor derives a human label from a slug-like identifier
func labelFor(slug string) string {
	if label, ok := postTypeLabels[slug]; ok {
		return label
	}
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
