package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/laurentvergnaud/kaigen-plugin/internal/database"
)

// optionRepo is the concrete implementation of OptionRepository, backed by
// the options key/value table
type optionRepo struct {
	db *database.DB
}

// NewOptionRepo creates a new option repository
func NewOptionRepo(db *database.DB) OptionRepository {
	return &optionRepo{db: db}
}

// Get retrieves an option value as raw JSON, returning nil when unset
func (r *optionRepo) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT option_value FROM options WHERE option_key = $1", key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// Set stores an option value, replacing any previous value
func (r *optionRepo) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode option %q: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO options (option_key, option_value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (option_key) DO UPDATE
		SET option_value = EXCLUDED.option_value, updated_at = now()
	`, key, raw)
	return err
}

// Delete removes an option; deleting a missing key is not an error
func (r *optionRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM options WHERE option_key = $1", key)
	return err
}
