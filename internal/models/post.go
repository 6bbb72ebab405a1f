package models

import (
	"time"
)

// Post represents a content item stored in the posts table
type Post struct {
	ID         int64     `json:"id" db:"id"`
	PostType   string    `json:"post_type" db:"post_type"`
	Status     string    `json:"status" db:"status"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	Excerpt    string    `json:"excerpt" db:"excerpt"`
	Slug       string    `json:"slug" db:"slug"`
	Date       time.Time `json:"date" db:"date"`
	ModifiedAt time.Time `json:"modified_at" db:"modified_at"`
	AuthorID   int64     `json:"author_id" db:"author_id"`
	AuthorName string    `json:"author_name" db:"-"` // joined from users
}

// PostUpdate carries the core post fields written in one atomic update.
// Nil pointers mean "leave unchanged".
type PostUpdate struct {
	Title   *string
	Content *string
	Excerpt *string
	Status  *string
	Slug    *string
	Date    *time.Time
	Author  *int64
}

// Term represents a taxonomy term
type Term struct {
	ID       int64  `json:"id" db:"id"`
	Taxonomy string `json:"taxonomy" db:"taxonomy"`
	Name     string `json:"name" db:"name"`
	Slug     string `json:"slug" db:"slug"`
}

// Attachment represents an uploaded media item
type Attachment struct {
	ID       int64  `json:"id" db:"id"`
	URL      string `json:"url" db:"url"`
	MimeType string `json:"mime_type" db:"mime_type"`
}

// Settings holds the connector settings stored in the options table
type Settings struct {
	EnabledPostTypes []string `json:"enabled_post_types"`
	SEOPlugin        string   `json:"seo_plugin"`
	EditorType       string   `json:"editor_type"`
	APIKeyEncrypted  string   `json:"api_key,omitempty"`
	APIURL           string   `json:"api_url,omitempty"`
	ProjectID        string   `json:"project_id,omitempty"`
	PlatformID       string   `json:"platform_id,omitempty"`
}

// PostTypeEnabled reports whether updates are allowed for the given post type
func (s *Settings) PostTypeEnabled(postType string) bool {
	for _, t := range s.EnabledPostTypes {
		if t == postType {
			return true
		}
	}
	return false
}

// UpdateLogEntry records one applied update in the activity log
type UpdateLogEntry struct {
	ID        string    `json:"id"`
	PostID    int64     `json:"post_id"`
	PostTitle string    `json:"post_title"`
	Changes   []string  `json:"changes"`
	Timestamp time.Time `json:"timestamp"`
}
