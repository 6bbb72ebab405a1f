package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/laurentvergnaud/kaigen-plugin/internal/apperror"
	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/repository"
	"github.com/rs/zerolog"
)

// thumbnailMetaKey stores the featured media attachment ID
const thumbnailMetaKey = "_thumbnail_id"

// documentService is the Document Builder: it synthesizes a canonical
// schema-version-2 document from the post row, its meta entries, taxonomy
// assignments, featured media and SEO plugin meta. Read-only.
type documentService struct {
	repos    *repository.Repositories
	settings SettingsService
	cfg      *config.Config
	cfStore  CustomFieldStore
	log      zerolog.Logger
}

func newDocumentService(repos *repository.Repositories, settings SettingsService, cfg *config.Config, cfStore CustomFieldStore, log zerolog.Logger) *documentService {
	return &documentService{
		repos:    repos,
		settings: settings,
		cfg:      cfg,
		cfStore:  cfStore,
		log:      log.With().Str("service", "document").Logger(),
	}
}

// Build produces the canonical document for a content item
func (s *documentService) Build(ctx context.Context, postID int64, opts models.BuildOptions) (document.Document, error) {
	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return nil, apperror.Wrap(apperror.DocumentBuildFailed, "failed to load post", err)
	}
	if post == nil {
		return nil, apperror.New(apperror.PostNotFound, fmt.Sprintf("post %d not found", postID))
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.DocumentBuildFailed, "failed to load settings", err)
	}

	meta, err := s.repos.Meta.GetAll(ctx, postID)
	if err != nil {
		return nil, apperror.Wrap(apperror.DocumentBuildFailed, "failed to load post meta", err)
	}

	taxonomies, err := s.buildTaxonomies(ctx, postID)
	if err != nil {
		return nil, apperror.Wrap(apperror.DocumentBuildFailed, "failed to load taxonomies", err)
	}

	media, err := s.buildMedia(ctx, meta)
	if err != nil {
		return nil, apperror.Wrap(apperror.DocumentBuildFailed, "failed to resolve featured media", err)
	}

	acf, err := s.buildACF(ctx, postID)
	if err != nil {
		return nil, apperror.Wrap(apperror.DocumentBuildFailed, "failed to load custom fields", err)
	}

	siteURL := s.cfg.Site.URL
	if opts.SiteURL != "" {
		siteURL = opts.SiteURL
	}

	var platformID any
	if opts.PlatformID != "" {
		platformID = opts.PlatformID
	}

	return document.Document{
		"schema_version": document.SchemaVersion,
		document.SectionPost: map[string]any{
			"id":          post.ID,
			"project_id":  opts.ProjectID,
			"platform_id": platformID,
			"site_url":    siteURL,
			"post_type":   post.PostType,
			"status":      post.Status,
			"title":       post.Title,
			"content":     post.Content,
			"excerpt":     post.Excerpt,
			"slug":        post.Slug,
			"date":        post.Date.UTC().Format(time.RFC3339),
			"url":         permalink(siteURL, post.Slug),
			"author": map[string]any{
				"id":   post.AuthorID,
				"name": post.AuthorName,
			},
		},
		document.SectionSEO:         s.buildSEO(settings.SEOPlugin, meta),
		document.SectionTaxonomies:  taxonomies,
		document.SectionCustomFields: map[string]any{
			"acf":  acf,
			"meta": publicMeta(meta),
		},
		document.SectionMedia: media,
		document.SectionExtensions: map[string]any{
			"editor_type": settings.EditorType,
		},
	}, nil
}

// buildSEO reads the normalized SEO payload from post meta, keyed by the
// active SEO plugin's meta-key set
func (s *documentService) buildSEO(plugin string, meta map[string]any) map[string]any {
	keys := document.SEOKeysFor(plugin)

	rawMeta := map[string]any{}
	for key, value := range meta {
		if document.IsSEOMetaKey(key) {
			rawMeta[key] = value
		}
	}

	return map[string]any{
		"plugin":        document.NormalizeSEOPlugin(plugin),
		"title":         seoScalar(meta[keys.Title]),
		"description":   seoScalar(meta[keys.Description]),
		"focus_keyword": seoScalar(meta[keys.FocusKeyword]),
		"raw_meta":      rawMeta,
	}
}

func (s *documentService) buildTaxonomies(ctx context.Context, postID int64) (map[string]any, error) {
	byTaxonomy, err := s.repos.Taxonomy.TermsForPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	taxonomies := map[string]any{}
	for taxonomy, terms := range byTaxonomy {
		ids := make([]any, len(terms))
		names := make([]any, len(terms))
		for i, term := range terms {
			ids[i] = term.ID
			names[i] = term.Name
		}
		taxonomies[taxonomy] = map[string]any{
			"ids":   ids,
			"names": names,
		}
	}
	return taxonomies, nil
}

func (s *documentService) buildMedia(ctx context.Context, meta map[string]any) (map[string]any, error) {
	media := map[string]any{
		"featured_media_id":  nil,
		"featured_media_url": nil,
	}

	id, ok := document.AsInt64(meta[thumbnailMetaKey])
	if !ok || id == 0 {
		return media, nil
	}

	att, err := s.repos.Media.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	media["featured_media_id"] = id
	if att != nil {
		media["featured_media_url"] = att.URL
	}
	return media, nil
}

func (s *documentService) buildACF(ctx context.Context, postID int64) (map[string]any, error) {
	if s.cfStore == nil {
		return map[string]any{}, nil
	}
	fields, err := s.cfStore.Fields(ctx, postID)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// publicMeta filters meta entries down to the public ones: internal keys
// (underscore-prefixed) and SEO plugin keys live in their own sections
func publicMeta(meta map[string]any) map[string]any {
	out := map[string]any{}
	for key, value := range meta {
		if strings.HasPrefix(key, "_") || document.IsSEOMetaKey(key) {
			continue
		}
		out[key] = value
	}
	return out
}

// seoScalar normalizes a stored SEO meta value: empty or missing becomes
// an explicit null in the document
func seoScalar(v any) any {
	s, ok := document.AsString(v)
	if !ok || s == "" {
		return nil
	}
	return s
}

// permalink derives a post URL from the site URL and slug
func permalink(siteURL, slug string) string {
	return strings.TrimRight(siteURL, "/") + "/" + slug
}
