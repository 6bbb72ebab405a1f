package repository

import (
	"context"
	"encoding/json"

	"github.com/laurentvergnaud/kaigen-plugin/internal/database"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Update(ctx context.Context, id int64, upd *models.PostUpdate) error
	List(ctx context.Context, postTypes []string, status string, page, perPage int) ([]*models.Post, int, error)
	ListRecent(ctx context.Context, postTypes []string, status string, limit int) ([]*models.Post, error)
	CountByType(ctx context.Context, postType string) (int, error)
	SlugExists(ctx context.Context, postType, slug string, excludeID int64) (bool, error)
	PostTypes(ctx context.Context) ([]string, error)
}

// MetaRepository defines the interface for post metadata operations
type MetaRepository interface {
	Get(ctx context.Context, postID int64, key string) (any, bool, error)
	GetAll(ctx context.Context, postID int64) (map[string]any, error)
	Upsert(ctx context.Context, postID int64, key string, value any) error
	Delete(ctx context.Context, postID int64, key string) error
	Keys(ctx context.Context, postType string) ([]string, error)
}

// TaxonomyRepository defines the interface for term assignment operations
type TaxonomyRepository interface {
	TermsForPost(ctx context.Context, postID int64) (map[string][]models.Term, error)
	ReplaceByIDs(ctx context.Context, postID int64, taxonomy string, ids []int64) error
	ReplaceByNames(ctx context.Context, postID int64, taxonomy string, names []string) error
	Clear(ctx context.Context, postID int64, taxonomy string) error
	Taxonomies(ctx context.Context) ([]string, error)
}

// MediaRepository defines the interface for attachment lookups
type MediaRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Attachment, error)
	GetByURL(ctx context.Context, url string) (*models.Attachment, error)
}

// OptionRepository defines the interface for the options key/value store
type OptionRepository interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Post     PostRepository
	Meta     MetaRepository
	Taxonomy TaxonomyRepository
	Media    MediaRepository
	Option   OptionRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Post:     NewPostRepo(db),
		Meta:     NewMetaRepo(db),
		Taxonomy: NewTaxonomyRepo(db),
		Media:    NewMediaRepo(db),
		Option:   NewOptionRepo(db),
	}
}
