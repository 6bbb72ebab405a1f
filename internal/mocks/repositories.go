package mocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
)

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	Posts       map[int64]*models.Post
	GetCalls    int
	UpdateCalls int
	UpdateError error
	// TakenSlugs simulates slug collisions: slugs here are already in use
	TakenSlugs map[string]bool
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{
		Posts:      make(map[int64]*models.Post),
		TakenSlugs: make(map[string]bool),
	}
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	m.GetCalls++
	post, ok := m.Posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (m *MockPostRepository) Update(ctx context.Context, id int64, upd *models.PostUpdate) error {
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	post, ok := m.Posts[id]
	if !ok {
		return sql.ErrNoRows
	}

	if upd.Title != nil {
		post.Title = *upd.Title
	}
	if upd.Content != nil {
		post.Content = *upd.Content
	}
	if upd.Excerpt != nil {
		post.Excerpt = *upd.Excerpt
	}
	if upd.Status != nil {
		post.Status = *upd.Status
	}
	if upd.Date != nil {
		post.Date = *upd.Date
	}
	if upd.Author != nil {
		post.AuthorID = *upd.Author
	}
	if upd.Slug != nil {
		slug := *upd.Slug
		if m.TakenSlugs[slug] {
			slug = fmt.Sprintf("%s-2", slug)
		}
		post.Slug = slug
	}
	post.ModifiedAt = time.Now()
	return nil
}

func (m *MockPostRepository) List(ctx context.Context, postTypes []string, status string, page, perPage int) ([]*models.Post, int, error) {
	matched := m.matching(postTypes, status)
	start := (page - 1) * perPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (m *MockPostRepository) ListRecent(ctx context.Context, postTypes []string, status string, limit int) ([]*models.Post, error) {
	matched := m.matching(postTypes, status)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockPostRepository) CountByType(ctx context.Context, postType string) (int, error) {
	count := 0
	for _, post := range m.Posts {
		if post.PostType == postType && post.Status == "publish" {
			count++
		}
	}
	return count, nil
}

func (m *MockPostRepository) SlugExists(ctx context.Context, postType, slug string, excludeID int64) (bool, error) {
	return m.TakenSlugs[slug], nil
}

func (m *MockPostRepository) PostTypes(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var types []string
	for _, post := range m.Posts {
		if !seen[post.PostType] {
			seen[post.PostType] = true
			types = append(types, post.PostType)
		}
	}
	return types, nil
}

func (m *MockPostRepository) matching(postTypes []string, status string) []*models.Post {
	typeSet := map[string]bool{}
	for _, t := range postTypes {
		typeSet[t] = true
	}
	var matched []*models.Post
	for _, post := range m.Posts {
		if typeSet[post.PostType] && post.Status == status {
			copied := *post
			matched = append(matched, &copied)
		}
	}
	return matched
}

// MockMetaRepository is a mock implementation of MetaRepository
type MockMetaRepository struct {
	Meta        map[int64]map[string]any
	UpsertError error
	DeleteError error
	UpsertCalls int
	DeleteCalls int
}

func NewMockMetaRepository() *MockMetaRepository {
	return &MockMetaRepository{
		Meta: make(map[int64]map[string]any),
	}
}

func (m *MockMetaRepository) SetMeta(postID int64, key string, value any) {
	if m.Meta[postID] == nil {
		m.Meta[postID] = make(map[string]any)
	}
	m.Meta[postID][key] = value
}

func (m *MockMetaRepository) Get(ctx context.Context, postID int64, key string) (any, bool, error) {
	value, ok := m.Meta[postID][key]
	return value, ok, nil
}

func (m *MockMetaRepository) GetAll(ctx context.Context, postID int64) (map[string]any, error) {
	out := make(map[string]any, len(m.Meta[postID]))
	for k, v := range m.Meta[postID] {
		out[k] = v
	}
	return out, nil
}

func (m *MockMetaRepository) Upsert(ctx context.Context, postID int64, key string, value any) error {
	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.SetMeta(postID, key, value)
	return nil
}

func (m *MockMetaRepository) Delete(ctx context.Context, postID int64, key string) error {
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Meta[postID], key)
	return nil
}

func (m *MockMetaRepository) Keys(ctx context.Context, postType string) ([]string, error) {
	seen := map[string]bool{}
	var keys []string
	for _, meta := range m.Meta {
		for k := range meta {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

// MockTaxonomyRepository is a mock implementation of TaxonomyRepository
type MockTaxonomyRepository struct {
	// Terms holds the current assignments per post and taxonomy
	Terms map[int64]map[string][]models.Term
	// Known holds resolvable terms by ID
	Known        map[int64]models.Term
	NextTermID   int64
	ReplaceError error
	ReplaceCalls int
	ClearCalls   int
}

func NewMockTaxonomyRepository() *MockTaxonomyRepository {
	return &MockTaxonomyRepository{
		Terms:      make(map[int64]map[string][]models.Term),
		Known:      make(map[int64]models.Term),
		NextTermID: 1000,
	}
}

func (m *MockTaxonomyRepository) AddKnownTerm(term models.Term) {
	m.Known[term.ID] = term
}

func (m *MockTaxonomyRepository) Assign(postID int64, term models.Term) {
	if m.Terms[postID] == nil {
		m.Terms[postID] = make(map[string][]models.Term)
	}
	m.Terms[postID][term.Taxonomy] = append(m.Terms[postID][term.Taxonomy], term)
	m.Known[term.ID] = term
}

func (m *MockTaxonomyRepository) TermsForPost(ctx context.Context, postID int64) (map[string][]models.Term, error) {
	out := make(map[string][]models.Term)
	for taxonomy, terms := range m.Terms[postID] {
		out[taxonomy] = append([]models.Term(nil), terms...)
	}
	return out, nil
}

func (m *MockTaxonomyRepository) ReplaceByIDs(ctx context.Context, postID int64, taxonomy string, ids []int64) error {
	m.ReplaceCalls++
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	var terms []models.Term
	for _, id := range ids {
		if term, ok := m.Known[id]; ok && term.Taxonomy == taxonomy {
			terms = append(terms, term)
		}
	}
	if m.Terms[postID] == nil {
		m.Terms[postID] = make(map[string][]models.Term)
	}
	m.Terms[postID][taxonomy] = terms
	return nil
}

func (m *MockTaxonomyRepository) ReplaceByNames(ctx context.Context, postID int64, taxonomy string, names []string) error {
	m.ReplaceCalls++
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	var terms []models.Term
	for _, name := range names {
		found := false
		for _, term := range m.Known {
			if term.Taxonomy == taxonomy && term.Name == name {
				terms = append(terms, term)
				found = true
				break
			}
		}
		if !found {
			m.NextTermID++
			term := models.Term{ID: m.NextTermID, Taxonomy: taxonomy, Name: name, Slug: name}
			m.Known[term.ID] = term
			terms = append(terms, term)
		}
	}
	if m.Terms[postID] == nil {
		m.Terms[postID] = make(map[string][]models.Term)
	}
	m.Terms[postID][taxonomy] = terms
	return nil
}

func (m *MockTaxonomyRepository) Clear(ctx context.Context, postID int64, taxonomy string) error {
	m.ClearCalls++
	delete(m.Terms[postID], taxonomy)
	return nil
}

func (m *MockTaxonomyRepository) Taxonomies(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var taxonomies []string
	for _, term := range m.Known {
		if !seen[term.Taxonomy] {
			seen[term.Taxonomy] = true
			taxonomies = append(taxonomies, term.Taxonomy)
		}
	}
	return taxonomies, nil
}

// MockMediaRepository is a mock implementation of MediaRepository
type MockMediaRepository struct {
	ByID  map[int64]*models.Attachment
	ByURL map[string]*models.Attachment
}

func NewMockMediaRepository() *MockMediaRepository {
	return &MockMediaRepository{
		ByID:  make(map[int64]*models.Attachment),
		ByURL: make(map[string]*models.Attachment),
	}
}

func (m *MockMediaRepository) AddAttachment(att models.Attachment) {
	m.ByID[att.ID] = &att
	m.ByURL[att.URL] = &att
}

func (m *MockMediaRepository) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	return m.ByID[id], nil
}

func (m *MockMediaRepository) GetByURL(ctx context.Context, url string) (*models.Attachment, error) {
	return m.ByURL[url], nil
}

// MockOptionRepository is a mock implementation of OptionRepository
type MockOptionRepository struct {
	Options  map[string]json.RawMessage
	GetError error
	SetError error
	SetCalls int
}

func NewMockOptionRepository() *MockOptionRepository {
	return &MockOptionRepository{
		Options: make(map[string]json.RawMessage),
	}
}

func (m *MockOptionRepository) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	raw, ok := m.Options[key]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func (m *MockOptionRepository) Set(ctx context.Context, key string, value any) error {
	m.SetCalls++
	if m.SetError != nil {
		return m.SetError
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.Options[key] = raw
	return nil
}

func (m *MockOptionRepository) Delete(ctx context.Context, key string) error {
	delete(m.Options, key)
	return nil
}
