package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/laurentvergnaud/kaigen-plugin/internal/apperror"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/repository"
	"github.com/rs/zerolog"
)

// Persistence sub-step names, in execution order
const (
	stepCoreFields   = "core_fields"
	stepMeta         = "meta"
	stepCustomFields = "custom_fields"
	stepSEO          = "seo"
	stepTaxonomies   = "taxonomies"
	stepMedia        = "media"
)

// persister decomposes a validated merged document back into individual
// storage writes. The core post update is atomic and aborts the whole
// operation on failure; the remaining steps are best-effort and their
// outcomes are recorded per step instead of failing silently.
type persister struct {
	repos   *repository.Repositories
	cfStore CustomFieldStore
	log     zerolog.Logger
}

func newPersister(repos *repository.Repositories, cfStore CustomFieldStore, log zerolog.Logger) *persister {
	return &persister{
		repos:   repos,
		cfStore: cfStore,
		log:     log.With().Str("component", "persister").Logger(),
	}
}

// Persist writes the merged document across its storage backings. The
// returned steps always include every attempted sub-step; the error is
// non-nil only when the atomic core update failed.
func (p *persister) Persist(ctx context.Context, postID int64, doc document.Document) ([]models.PersistStep, error) {
	steps := make([]models.PersistStep, 0, 6)

	if err := p.persistCore(ctx, postID, doc); err != nil {
		steps = append(steps, models.PersistStep{Step: stepCoreFields, OK: false, Error: err.Error()})
		return steps, apperror.Wrap(apperror.PersistenceFailed, "core post update failed", err)
	}
	steps = append(steps, models.PersistStep{Step: stepCoreFields, OK: true})

	steps = append(steps, p.runStep(stepMeta, func() error {
		return p.persistMeta(ctx, postID, doc)
	}))
	steps = append(steps, p.runStep(stepCustomFields, func() error {
		return p.persistCustomFields(ctx, postID, doc)
	}))
	steps = append(steps, p.runStep(stepSEO, func() error {
		return p.persistSEO(ctx, postID, doc)
	}))
	steps = append(steps, p.runStep(stepTaxonomies, func() error {
		return p.persistTaxonomies(ctx, postID, doc)
	}))
	steps = append(steps, p.runStep(stepMedia, func() error {
		return p.persistMedia(ctx, postID, doc)
	}))

	return steps, nil
}

func (p *persister) runStep(name string, fn func() error) models.PersistStep {
	if err := fn(); err != nil {
		p.log.Warn().Err(err).Str("step", name).Msg("Persistence sub-step failed")
		return models.PersistStep{Step: name, OK: false, Error: err.Error()}
	}
	return models.PersistStep{Step: name, OK: true}
}

// persistCore writes the core post fields as one atomic update
func (p *persister) persistCore(ctx context.Context, postID int64, doc document.Document) error {
	post, ok := doc.Section(document.SectionPost)
	if !ok {
		return fmt.Errorf("post section missing")
	}

	upd := &models.PostUpdate{}
	if title, ok := document.AsString(post["title"]); ok {
		v := sanitizeText(title)
		upd.Title = &v
	}
	if content, ok := document.AsString(post["content"]); ok {
		upd.Content = &content
	}
	if excerpt, ok := document.AsString(post["excerpt"]); ok {
		v := sanitizeText(excerpt)
		upd.Excerpt = &v
	}
	if status, ok := document.AsString(post["status"]); ok {
		upd.Status = &status
	}
	if slug, ok := document.AsString(post["slug"]); ok {
		upd.Slug = &slug
	}
	if date, ok := document.AsString(post["date"]); ok {
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			upd.Date = &t
		}
	}
	if author, ok := document.AsMap(post["author"]); ok {
		if id, ok := document.AsInt64(author["id"]); ok && id > 0 {
			upd.Author = &id
		}
	}

	return p.repos.Post.Update(ctx, postID, upd)
}

// persistMeta reconciles the public meta entries with the document's
// custom_fields.meta map: present keys are sanitized and upserted, stored
// keys the merge removed are deleted
func (p *persister) persistMeta(ctx context.Context, postID int64, doc document.Document) error {
	target := customFieldsSub(doc, "meta")

	stored, err := p.repos.Meta.GetAll(ctx, postID)
	if err != nil {
		return err
	}

	for key := range publicMeta(stored) {
		if _, keep := target[key]; !keep {
			if err := p.repos.Meta.Delete(ctx, postID, key); err != nil {
				return err
			}
		}
	}

	for key, value := range target {
		// Internal meta stays off-limits for generic writes
		if strings.HasPrefix(key, "_") {
			continue
		}
		if value == nil {
			if err := p.repos.Meta.Delete(ctx, postID, key); err != nil {
				return err
			}
			continue
		}
		if err := p.repos.Meta.Upsert(ctx, postID, key, sanitizeValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// persistCustomFields writes ACF-style fields through the custom fields
// integration, falling back to the generic metadata store when absent
func (p *persister) persistCustomFields(ctx context.Context, postID int64, doc document.Document) error {
	target := customFieldsSub(doc, "acf")

	if p.cfStore == nil {
		for key, value := range target {
			if value == nil {
				if err := p.repos.Meta.Delete(ctx, postID, key); err != nil {
					return err
				}
				continue
			}
			if err := p.repos.Meta.Upsert(ctx, postID, key, value); err != nil {
				return err
			}
		}
		return nil
	}

	stored, err := p.cfStore.Fields(ctx, postID)
	if err != nil {
		return err
	}
	for key := range stored {
		if _, keep := target[key]; !keep {
			if err := p.cfStore.DeleteField(ctx, postID, key); err != nil {
				return err
			}
		}
	}
	for key, value := range target {
		if value == nil {
			if err := p.cfStore.DeleteField(ctx, postID, key); err != nil {
				return err
			}
			continue
		}
		if err := p.cfStore.UpdateField(ctx, postID, key, value); err != nil {
			return err
		}
	}
	return nil
}

// persistSEO resolves the normalized SEO fields to plugin-specific meta keys
// and reconciles the raw_meta passthrough entries
func (p *persister) persistSEO(ctx context.Context, postID int64, doc document.Document) error {
	seo, ok := doc.Section(document.SectionSEO)
	if !ok {
		return nil
	}

	plugin, _ := document.AsString(seo["plugin"])
	keys := document.SEOKeysFor(plugin)

	normalized := map[string]any{
		keys.Title:        seo["title"],
		keys.Description:  seo["description"],
		keys.FocusKeyword: seo["focus_keyword"],
	}
	for metaKey, value := range normalized {
		if s, ok := document.AsString(value); ok && s != "" {
			if err := p.repos.Meta.Upsert(ctx, postID, metaKey, sanitizeText(s)); err != nil {
				return err
			}
		} else {
			if err := p.repos.Meta.Delete(ctx, postID, metaKey); err != nil {
				return err
			}
		}
	}

	rawMeta, ok := document.AsMap(seo["raw_meta"])
	if !ok {
		return nil
	}

	stored, err := p.repos.Meta.GetAll(ctx, postID)
	if err != nil {
		return err
	}
	for key := range stored {
		if !document.IsSEOMetaKey(key) {
			continue
		}
		if _, managed := normalized[key]; managed {
			continue
		}
		if _, keep := rawMeta[key]; !keep {
			if err := p.repos.Meta.Delete(ctx, postID, key); err != nil {
				return err
			}
		}
	}
	for key, value := range rawMeta {
		if !document.IsSEOMetaKey(key) {
			continue
		}
		// The normalized fields own their plugin keys; the raw_meta copy of
		// those keys is the pre-patch value and must not win
		if _, managed := normalized[key]; managed {
			continue
		}
		if value == nil {
			if err := p.repos.Meta.Delete(ctx, postID, key); err != nil {
				return err
			}
			continue
		}
		if err := p.repos.Meta.Upsert(ctx, postID, key, sanitizeValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// persistTaxonomies replaces the full term list per taxonomy. An entry with
// ids wins over names; an entry with neither clears the taxonomy. Stored
// taxonomies absent from the document are cleared, completing the merge's
// delete semantics.
func (p *persister) persistTaxonomies(ctx context.Context, postID int64, doc document.Document) error {
	taxonomies, ok := doc.Section(document.SectionTaxonomies)
	if !ok {
		return nil
	}

	stored, err := p.repos.Taxonomy.TermsForPost(ctx, postID)
	if err != nil {
		return err
	}
	for taxonomy := range stored {
		if _, keep := taxonomies[taxonomy]; !keep {
			if err := p.repos.Taxonomy.Clear(ctx, postID, taxonomy); err != nil {
				return err
			}
		}
	}

	for taxonomy, entry := range taxonomies {
		m, ok := document.AsMap(entry)
		if !ok {
			continue
		}
		if ids, ok := document.Int64Slice(m["ids"]); ok && m["ids"] != nil {
			if err := p.repos.Taxonomy.ReplaceByIDs(ctx, postID, taxonomy, ids); err != nil {
				return err
			}
			continue
		}
		if names, ok := document.StringSlice(m["names"]); ok && m["names"] != nil {
			if err := p.repos.Taxonomy.ReplaceByNames(ctx, postID, taxonomy, names); err != nil {
				return err
			}
			continue
		}
		if err := p.repos.Taxonomy.Clear(ctx, postID, taxonomy); err != nil {
			return err
		}
	}
	return nil
}

// persistMedia sets or clears the featured media reference. A usable ID
// wins; otherwise a non-empty URL is resolved to an attachment. The section
// always carries both keys (null when unset), so a null ID falls through to
// the URL rather than ending the step.
func (p *persister) persistMedia(ctx context.Context, postID int64, doc document.Document) error {
	media, ok := doc.Section(document.SectionMedia)
	if !ok {
		return nil
	}

	if id, ok := document.AsInt64(media["featured_media_id"]); ok && id != 0 {
		att, err := p.repos.Media.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if att == nil {
			return fmt.Errorf("attachment %d not found", id)
		}
		return p.repos.Meta.Upsert(ctx, postID, thumbnailMetaKey, id)
	}

	if url, _ := document.AsString(media["featured_media_url"]); url != "" {
		att, err := p.repos.Media.GetByURL(ctx, url)
		if err != nil {
			return err
		}
		if att == nil {
			return fmt.Errorf("no attachment matches url %q", url)
		}
		return p.repos.Meta.Upsert(ctx, postID, thumbnailMetaKey, att.ID)
	}

	return p.repos.Meta.Delete(ctx, postID, thumbnailMetaKey)
}

// customFieldsSub returns one of the custom_fields sub-maps, never nil
func customFieldsSub(doc document.Document, name string) map[string]any {
	cf, ok := doc.Section(document.SectionCustomFields)
	if !ok {
		return map[string]any{}
	}
	sub, ok := document.AsMap(cf[name])
	if !ok {
		return map[string]any{}
	}
	return sub
}

// sanitizeText strips control characters and invalid UTF-8 from a scalar
// string value before it reaches storage
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// sanitizeValue sanitizes scalar strings and recurses into arrays and
// objects; other scalar types pass through unchanged
func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return sanitizeText(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = sanitizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = sanitizeValue(e)
		}
		return out
	default:
		return v
	}
}
