package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/laurentvergnaud/kaigen-plugin/internal/database"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/lib/pq"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

const postColumns = `
	p.id, p.post_type, p.status, p.title, p.content, p.excerpt, p.slug,
	p.date, p.modified_at, p.author_id, u.display_name
`

// GetByID retrieves a post by ID, returning nil when it does not exist
func (r *postRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Update writes the core post fields as one atomic statement. A nil pointer
// in upd leaves the column unchanged. Slugs are normalized and de-duplicated
// before the write, so the stored slug may differ from the requested one.
func (r *postRepo) Update(ctx context.Context, id int64, upd *models.PostUpdate) error {
	sets := []string{"modified_at = now()"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if upd.Title != nil {
		sets = append(sets, "title = "+arg(*upd.Title))
	}
	if upd.Content != nil {
		sets = append(sets, "content = "+arg(*upd.Content))
	}
	if upd.Excerpt != nil {
		sets = append(sets, "excerpt = "+arg(*upd.Excerpt))
	}
	if upd.Status != nil {
		sets = append(sets, "status = "+arg(*upd.Status))
	}
	if upd.Date != nil {
		sets = append(sets, "date = "+arg(*upd.Date))
	}
	if upd.Author != nil {
		sets = append(sets, "author_id = "+arg(*upd.Author))
	}
	if upd.Slug != nil {
		slug, err := r.resolveSlug(ctx, id, *upd.Slug)
		if err != nil {
			return err
		}
		sets = append(sets, "slug = "+arg(slug))
	}

	query := fmt.Sprintf("UPDATE posts SET %s WHERE id = %s", strings.Join(sets, ", "), arg(id))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// resolveSlug normalizes a requested slug and resolves collisions by
// appending a numeric suffix, mirroring how the underlying storage layer
// disambiguates duplicate slugs
func (r *postRepo) resolveSlug(ctx context.Context, id int64, requested string) (string, error) {
	var postType string
	if err := r.db.QueryRowContext(ctx, "SELECT post_type FROM posts WHERE id = $1", id).Scan(&postType); err != nil {
		return "", err
	}

	base := SanitizeSlug(requested)
	if base == "" {
		base = fmt.Sprintf("post-%d", id)
	}

	slug := base
	for i := 2; ; i++ {
		taken, err := r.SlugExists(ctx, postType, slug, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// List returns one page of posts ordered by modification time, newest first,
// along with the total match count
func (r *postRepo) List(ctx context.Context, postTypes []string, status string, page, perPage int) ([]*models.Post, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 100
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE post_type = ANY($1) AND status = $2",
		pq.Array(postTypes), status,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.post_type = ANY($1) AND p.status = $2
		ORDER BY p.modified_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postTypes), status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListRecent returns the newest posts by publish date, for link candidates
func (r *postRepo) ListRecent(ctx context.Context, postTypes []string, status string, limit int) ([]*models.Post, error) {
	if limit < 1 {
		limit = 100
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.post_type = ANY($1) AND p.status = $2
		ORDER BY p.date DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postTypes), status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// CountByType counts published posts of the given type
func (r *postRepo) CountByType(ctx context.Context, postType string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE post_type = $1 AND status = 'publish'", postType,
	).Scan(&count)
	return count, err
}

// SlugExists checks whether another post of the same type already uses the slug
func (r *postRepo) SlugExists(ctx context.Context, postType, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM posts WHERE post_type = $1 AND slug = $2 AND id <> $3)",
		postType, slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// PostTypes returns the distinct post types present in storage
func (r *postRepo) PostTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT post_type FROM posts ORDER BY post_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SanitizeSlug lowercases a slug and collapses invalid characters to hyphens
func SanitizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.PostType, &post.Status, &post.Title, &post.Content,
		&post.Excerpt, &post.Slug, &post.Date, &post.ModifiedAt,
		&post.AuthorID, &post.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func collectPosts(rows *sql.Rows) ([]*models.Post, error) {
	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
