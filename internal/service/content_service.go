package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/laurentvergnaud/kaigen-plugin/internal/apperror"
	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/repository"
	"github.com/rs/zerolog"
)

const excerptWords = 55

var htmlTags = regexp.MustCompile(`<[^>]*>`)

// contentService exposes the content library to the remote service
type contentService struct {
	repos    *repository.Repositories
	builder  DocumentService
	settings SettingsService
	cfg      *config.Config
	log      zerolog.Logger
}

func newContentService(repos *repository.Repositories, builder DocumentService, settings SettingsService, cfg *config.Config, log zerolog.Logger) *contentService {
	return &contentService{
		repos:    repos,
		builder:  builder,
		settings: settings,
		cfg:      cfg,
		log:      log.With().Str("service", "content").Logger(),
	}
}

// ListContent returns one page of the content library across the enabled
// post types, most recently modified first
func (s *contentService) ListContent(ctx context.Context, postType string, page, perPage int) (*models.ContentList, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 100
	}

	postTypes, err := s.resolvePostTypes(ctx, postType)
	if err != nil {
		return nil, err
	}

	posts, total, err := s.repos.Post.List(ctx, postTypes, "publish", page, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	items := make([]models.ContentListItem, 0, len(posts))
	for _, post := range posts {
		terms, err := s.repos.Taxonomy.TermsForPost(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load terms for post %d: %w", post.ID, err)
		}

		items = append(items, models.ContentListItem{
			ID:            post.ID,
			Title:         post.Title,
			Content:       post.Content,
			Excerpt:       smartExcerpt(post.Excerpt, post.Content),
			URL:           permalink(s.cfg.Site.URL, post.Slug),
			PostType:      post.PostType,
			Status:        post.Status,
			Author:        post.AuthorName,
			PublishedDate: post.Date.UTC().Format(time.RFC3339),
			ModifiedDate:  post.ModifiedAt.UTC().Format(time.RFC3339),
			Categories:    repository.TermNames(terms["category"]),
			Tags:          repository.TermNames(terms["post_tag"]),
		})
	}

	totalPages := (total + perPage - 1) / perPage

	return &models.ContentList{
		Posts:      items,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// GetDocument returns the canonical document for one post, gated on the
// post type being enabled
func (s *contentService) GetDocument(ctx context.Context, postID int64) (document.Document, error) {
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
	if !settings.PostTypeEnabled(post.PostType) {
		return nil, apperror.New(apperror.InsufficientPermissions,
			fmt.Sprintf("post type %q is not enabled", post.PostType))
	}

	return s.builder.Build(ctx, postID, models.BuildOptions{})
}

// GetLinkCandidates lists recent published posts as internal linking targets
func (s *contentService) GetLinkCandidates(ctx context.Context, postType string, limit int) ([]models.LinkCandidate, error) {
	postTypes, err := s.resolvePostTypes(ctx, postType)
	if err != nil {
		return nil, err
	}

	posts, err := s.repos.Post.ListRecent(ctx, postTypes, "publish", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list link candidates: %w", err)
	}

	candidates := make([]models.LinkCandidate, 0, len(posts))
	for _, post := range posts {
		candidates = append(candidates, models.LinkCandidate{
			ID:       post.ID,
			Title:    post.Title,
			URL:      permalink(s.cfg.Site.URL, post.Slug),
			Excerpt:  smartExcerpt(post.Excerpt, post.Content),
			PostType: post.PostType,
		})
	}
	return candidates, nil
}

// CountByType counts published posts of one type
func (s *contentService) CountByType(ctx context.Context, postType string) (int, error) {
	return s.repos.Post.CountByType(ctx, postType)
}

// resolvePostTypes narrows the enabled post types to the requested one, or
// returns all enabled types when none is requested
func (s *contentService) resolvePostTypes(ctx context.Context, postType string) ([]string, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if postType != "" && settings.PostTypeEnabled(postType) {
		return []string{postType}, nil
	}
	return settings.EnabledPostTypes, nil
}

// smartExcerpt uses the stored excerpt when present, otherwise trims the
// content down to its leading words with tags stripped
func smartExcerpt(excerpt, content string) string {
	if excerpt != "" {
		return excerpt
	}

	plain := htmlTags.ReplaceAllString(content, " ")
	words := strings.Fields(plain)
	if len(words) <= excerptWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:excerptWords], " ") + "..."
}
