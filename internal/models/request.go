package models

import (
	"encoding/json"
)

// UpdateRequest is the inbound document update payload
type UpdateRequest struct {
	PostID        int64           `json:"post_id"`
	SchemaVersion int             `json:"schema_version"`
	Changes       json.RawMessage `json:"changes"`
	ProjectID     string          `json:"project_id,omitempty"`
	PlatformID    string          `json:"platform_id,omitempty"`
	SiteURL       string          `json:"site_url,omitempty"`
}

// BuildOptions carries optional context for document building
type BuildOptions struct {
	ProjectID  string
	PlatformID string
	SiteURL    string
}

// PersistStep records the outcome of one persistence sub-step
type PersistStep struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// UpdateResponse is returned after a successful document update
type UpdateResponse struct {
	Success  bool           `json:"success"`
	PostID   int64          `json:"post_id"`
	URL      string         `json:"url"`
	Steps    []PersistStep  `json:"steps"`
	Document map[string]any `json:"document"`
}

// ContentListItem is one entry in the content library listing
type ContentListItem struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	URL           string   `json:"url"`
	PostType      string   `json:"postType"`
	Status        string   `json:"status"`
	Author        string   `json:"author"`
	PublishedDate string   `json:"publishedDate"`
	ModifiedDate  string   `json:"modifiedDate"`
	Categories    []string `json:"categories"`
	Tags          []string `json:"tags"`
}

// ContentList is the paginated content library response
type ContentList struct {
	Posts      []ContentListItem `json:"posts"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
}

// LinkCandidate is one internal linking candidate
type LinkCandidate struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Excerpt  string `json:"excerpt"`
	PostType string `json:"postType"`
}

// PostTypeInfo describes one post type in the structure payload
type PostTypeInfo struct {
	Slug       string   `json:"slug"`
	Label      string   `json:"label"`
	Taxonomies []string `json:"taxonomies"`
	Count      int      `json:"count"`
	Enabled    bool     `json:"enabled"`
}

// CustomFieldInfo describes one discovered custom field
type CustomFieldInfo struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Source string `json:"source"`
}

// SiteStructure is the structure discovery payload
type SiteStructure struct {
	PostTypes    []PostTypeInfo               `json:"postTypes"`
	CustomFields map[string][]CustomFieldInfo `json:"customFields"`
	EditorType   string                       `json:"editorType"`
	SEOPlugin    string                       `json:"seoPlugin"`
	SiteURL      string                       `json:"siteUrl"`
	SiteName     string                       `json:"siteName"`
}
