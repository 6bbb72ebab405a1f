package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/laurentvergnaud/kaigen-plugin/internal/database"
)

// metaRepo is the concrete implementation of MetaRepository. Values are
// stored as JSONB so arbitrary scalar and array values round-trip.
type metaRepo struct {
	db *database.DB
}

// NewMetaRepo creates a new metadata repository
func NewMetaRepo(db *database.DB) MetaRepository {
	return &metaRepo{db: db}
}

// Get retrieves a single meta value for a post
func (r *metaRepo) Get(ctx context.Context, postID int64, key string) (any, bool, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT meta_value FROM post_meta WHERE post_id = $1 AND meta_key = $2",
		postID, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, fmt.Errorf("failed to decode meta value %q: %w", key, err)
	}
	return value, true, nil
}

// GetAll retrieves every meta entry for a post
func (r *metaRepo) GetAll(ctx context.Context, postID int64) (map[string]any, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT meta_key, meta_value FROM post_meta WHERE post_id = $1", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]any)
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("failed to decode meta value %q: %w", key, err)
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

// Upsert inserts or replaces a meta entry
func (r *metaRepo) Upsert(ctx context.Context, postID int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode meta value %q: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO post_meta (post_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value
	`, postID, key, raw)
	return err
}

// Delete removes a meta entry; deleting a missing key is not an error
func (r *metaRepo) Delete(ctx context.Context, postID int64, key string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM post_meta WHERE post_id = $1 AND meta_key = $2", postID, key)
	return err
}

// Keys returns the distinct meta keys used by posts of the given type,
// for custom field discovery
func (r *metaRepo) Keys(ctx context.Context, postType string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT m.meta_key
		FROM post_meta m JOIN posts p ON p.id = m.post_id
		WHERE p.post_type = $1
		ORDER BY m.meta_key
	`, postType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
