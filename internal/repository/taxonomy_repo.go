package repository

import (
	"context"
	"database/sql"

	"github.com/laurentvergnaud/kaigen-plugin/internal/database"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
)

// taxonomyRepo is the concrete implementation of TaxonomyRepository
type taxonomyRepo struct {
	db *database.DB
}

// NewTaxonomyRepo creates a new taxonomy repository
func NewTaxonomyRepo(db *database.DB) TaxonomyRepository {
	return &taxonomyRepo{db: db}
}

// TermsForPost returns the assigned terms grouped by taxonomy, in position order
func (r *taxonomyRepo) TermsForPost(ctx context.Context, postID int64) (map[string][]models.Term, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.taxonomy, t.name, t.slug
		FROM term_relationships tr JOIN terms t ON t.id = tr.term_id
		WHERE tr.post_id = $1
		ORDER BY t.taxonomy, tr.position
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]models.Term)
	for rows.Next() {
		var term models.Term
		if err := rows.Scan(&term.ID, &term.Taxonomy, &term.Name, &term.Slug); err != nil {
			return nil, err
		}
		result[term.Taxonomy] = append(result[term.Taxonomy], term)
	}
	return result, rows.Err()
}

// ReplaceByIDs replaces the full term list for one taxonomy with the given
// term IDs. Unknown IDs are skipped.
func (r *taxonomyRepo) ReplaceByIDs(ctx context.Context, postID int64, taxonomy string, ids []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearTaxonomy(ctx, tx, postID, taxonomy); err != nil {
		return err
	}

	for pos, id := range ids {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO term_relationships (post_id, term_id, position)
			SELECT $1, id, $2 FROM terms WHERE id = $3 AND taxonomy = $4
			ON CONFLICT DO NOTHING
		`, postID, pos, id, taxonomy)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReplaceByNames replaces the full term list for one taxonomy with terms
// matched by name, creating terms that do not exist yet
func (r *taxonomyRepo) ReplaceByNames(ctx context.Context, postID int64, taxonomy string, names []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearTaxonomy(ctx, tx, postID, taxonomy); err != nil {
		return err
	}

	for pos, name := range names {
		slug := SanitizeSlug(name)
		if slug == "" {
			continue
		}

		var termID int64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM terms WHERE taxonomy = $1 AND slug = $2", taxonomy, slug,
		).Scan(&termID)
		if err == sql.ErrNoRows {
			err = tx.QueryRowContext(ctx,
				"INSERT INTO terms (taxonomy, name, slug) VALUES ($1, $2, $3) RETURNING id",
				taxonomy, name, slug,
			).Scan(&termID)
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO term_relationships (post_id, term_id, position)
			VALUES ($1, $2, $3) ON CONFLICT DO NOTHING
		`, postID, termID, pos)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Clear removes every term assignment for one taxonomy of a post
func (r *taxonomyRepo) Clear(ctx context.Context, postID int64, taxonomy string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearTaxonomy(ctx, tx, postID, taxonomy); err != nil {
		return err
	}
	return tx.Commit()
}

// Taxonomies returns the distinct taxonomy names present in storage
func (r *taxonomyRepo) Taxonomies(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT taxonomy FROM terms ORDER BY taxonomy")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taxonomies []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		taxonomies = append(taxonomies, t)
	}
	return taxonomies, rows.Err()
}

func clearTaxonomy(ctx context.Context, tx *sql.Tx, postID int64, taxonomy string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM term_relationships tr
		USING terms t
		WHERE tr.term_id = t.id AND tr.post_id = $1 AND t.taxonomy = $2
	`, postID, taxonomy)
	return err
}

// TermIDs extracts the IDs of a term list
func TermIDs(terms []models.Term) []int64 {
	ids := make([]int64, len(terms))
	for i, t := range terms {
		ids[i] = t.ID
	}
	return ids
}

// TermNames extracts the names of a term list
func TermNames(terms []models.Term) []string {
	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.Name
	}
	return names
}
