package service

import (
	"context"
	"testing"

	"github.com/laurentvergnaud/kaigen-plugin/internal/apperror"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
)

func TestBuildNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.builder.Build(context.Background(), 404, models.BuildOptions{})
	if apperror.KindOf(err) != apperror.PostNotFound {
		t.Errorf("Expected PostNotFound, got %v", err)
	}
}

func TestBuildDocument(t *testing.T) {
	env := newTestEnv()
	env.seedPost()
	env.metaRepo.SetMeta(42, "subtitle", "A subtitle")
	env.metaRepo.SetMeta(42, "_internal", "hidden")
	env.metaRepo.SetMeta(42, "_yoast_wpseo_title", "Meta SEO title")
	env.metaRepo.SetMeta(42, "_thumbnail_id", int64(5))
	env.media.AddAttachment(models.Attachment{ID: 5, URL: "https://example.com/a.jpg", MimeType: "image/jpeg"})
	env.taxRepo.Assign(42, models.Term{ID: 3, Taxonomy: "category", Name: "News", Slug: "news"})

	doc, err := env.builder.Build(context.Background(), 42, models.BuildOptions{
		ProjectID: "proj-1",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if doc["schema_version"] != document.SchemaVersion {
		t.Errorf("Expected schema_version %d, got %v", document.SchemaVersion, doc["schema_version"])
	}

	post, ok := doc.Section(document.SectionPost)
	if !ok {
		t.Fatal("Expected post section")
	}
	if post["title"] != "Original title" || post["status"] != "publish" {
		t.Errorf("Unexpected post section %v", post)
	}
	if post["url"] != "https://example.com/original-title" {
		t.Errorf("Unexpected post url %v", post["url"])
	}
	if post["project_id"] != "proj-1" {
		t.Errorf("Expected project_id carried through, got %v", post["project_id"])
	}
	if post["platform_id"] != nil {
		t.Errorf("Expected absent platform_id to be null, got %v", post["platform_id"])
	}
	if post["date"] != "2024-05-01T10:00:00Z" {
		t.Errorf("Unexpected date %v", post["date"])
	}
	author, _ := document.AsMap(post["author"])
	if author["name"] != "Alice" {
		t.Errorf("Expected author name joined, got %v", author["name"])
	}

	seo, _ := doc.Section(document.SectionSEO)
	if seo["plugin"] != "none" {
		t.Errorf("Expected default plugin none, got %v", seo["plugin"])
	}
	if seo["title"] != "Meta SEO title" {
		t.Errorf("Expected SEO title from meta, got %v", seo["title"])
	}
	if seo["description"] != nil {
		t.Errorf("Expected missing SEO description to be null, got %v", seo["description"])
	}
	raw, _ := document.AsMap(seo["raw_meta"])
	if raw["_yoast_wpseo_title"] != "Meta SEO title" {
		t.Error("Expected SEO meta collected into raw_meta")
	}
	if _, present := raw["subtitle"]; present {
		t.Error("Expected non-SEO meta out of raw_meta")
	}

	taxonomies, _ := doc.Section(document.SectionTaxonomies)
	category, _ := document.AsMap(taxonomies["category"])
	names, _ := document.StringSlice(category["names"])
	if len(names) != 1 || names[0] != "News" {
		t.Errorf("Unexpected category names %v", names)
	}

	cf, _ := doc.Section(document.SectionCustomFields)
	meta, _ := document.AsMap(cf["meta"])
	if meta["subtitle"] != "A subtitle" {
		t.Errorf("Expected public meta exposed, got %v", meta)
	}
	if _, present := meta["_internal"]; present {
		t.Error("Expected internal meta filtered out")
	}
	if _, present := meta["_yoast_wpseo_title"]; present {
		t.Error("Expected SEO meta filtered out of custom fields")
	}
	acf, _ := document.AsMap(cf["acf"])
	if len(acf) != 0 {
		t.Errorf("Expected empty acf map without an integration, got %v", acf)
	}

	media, _ := doc.Section(document.SectionMedia)
	id, _ := document.AsInt64(media["featured_media_id"])
	if id != 5 {
		t.Errorf("Expected featured media id 5, got %v", media["featured_media_id"])
	}
	if media["featured_media_url"] != "https://example.com/a.jpg" {
		t.Errorf("Expected featured media url resolved, got %v", media["featured_media_url"])
	}

	ext, _ := doc.Section(document.SectionExtensions)
	if ext["editor_type"] != "gutenberg" {
		t.Errorf("Expected default editor type, got %v", ext["editor_type"])
	}
}

func TestBuildWithoutFeaturedMedia(t *testing.T) {
	env := newTestEnv()
	env.seedPost()

	doc, err := env.builder.Build(context.Background(), 42, models.BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	media, _ := doc.Section(document.SectionMedia)
	if media["featured_media_id"] != nil || media["featured_media_url"] != nil {
		t.Errorf("Expected null media fields, got %v", media)
	}
}

func TestBuildSiteURLOverride(t *testing.T) {
	env := newTestEnv()
	env.seedPost()

	doc, err := env.builder.Build(context.Background(), 42, models.BuildOptions{
		SiteURL: "https://override.example.com/",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	post, _ := doc.Section(document.SectionPost)
	if post["site_url"] != "https://override.example.com/" {
		t.Errorf("Expected site_url override, got %v", post["site_url"])
	}
	if post["url"] != "https://override.example.com/original-title" {
		t.Errorf("Expected permalink from the override, got %v", post["url"])
	}
}

func TestBuildRoundTripsThroughMergeAndValidate(t *testing.T) {
	env := newTestEnv()
	env.seedPost()

	doc, err := env.builder.Build(context.Background(), 42, models.BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	merged := document.Merge(doc, map[string]any{})
	if err := document.Validate(merged); err != nil {
		t.Errorf("Expected a freshly built document to validate, got %v", err)
	}
}
