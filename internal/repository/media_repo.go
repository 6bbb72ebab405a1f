package repository

import (
	"context"
	"database/sql"

	"github.com/laurentvergnaud/kaigen-plugin/internal/database"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
)

// mediaRepo is the concrete implementation of MediaRepository
type mediaRepo struct {
	db *database.DB
}

// NewMediaRepo creates a new media repository
func NewMediaRepo(db *database.DB) MediaRepository {
	return &mediaRepo{db: db}
}

// GetByID retrieves an attachment by ID, returning nil when it does not exist
func (r *mediaRepo) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	var att models.Attachment
	err := r.db.QueryRowContext(ctx,
		"SELECT id, url, mime_type FROM attachments WHERE id = $1", id,
	).Scan(&att.ID, &att.URL, &att.MimeType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// GetByURL looks an attachment up by its URL, returning nil when unknown
func (r *mediaRepo) GetByURL(ctx context.Context, url string) (*models.Attachment, error) {
	var att models.Attachment
	err := r.db.QueryRowContext(ctx,
		"SELECT id, url, mime_type FROM attachments WHERE url = $1", url,
	).Scan(&att.ID, &att.URL, &att.MimeType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}
