package service

import (
	"context"
	"testing"

	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/rs/zerolog"
)

func TestGetStructure(t *testing.T) {
	env := newTestEnv()
	env.seedPost()
	env.postRepo.Posts[50] = &models.Post{ID: 50, PostType: "product", Status: "publish", Slug: "widget"}
	env.metaRepo.SetMeta(42, "subtitle", "A subtitle")
	env.metaRepo.SetMeta(42, "_internal", "hidden")
	env.metaRepo.SetMeta(42, "_yoast_wpseo_title", "SEO")
	env.taxRepo.AddKnownTerm(models.Term{ID: 3, Taxonomy: "category", Name: "News", Slug: "news"})

	svc := newStructureService(env.repos, env.settings, env.cfg, zerolog.Nop())

	structure, err := svc.GetStructure(context.Background())
	if err != nil {
		t.Fatalf("GetStructure failed: %v", err)
	}

	if structure.SiteURL != "https://example.com" || structure.SiteName != "Example Site" {
		t.Errorf("Unexpected site identity %q %q", structure.SiteURL, structure.SiteName)
	}
	if structure.EditorType != "gutenberg" || structure.SEOPlugin != "none" {
		t.Errorf("Unexpected editor/SEO config %q %q", structure.EditorType, structure.SEOPlugin)
	}

	byType := map[string]models.PostTypeInfo{}
	for _, info := range structure.PostTypes {
		byType[info.Slug] = info
	}
	if info, ok := byType["post"]; !ok || !info.Enabled || info.Count != 1 || info.Label != "Posts" {
		t.Errorf("Unexpected post type info %+v", info)
	}
	if info, ok := byType["product"]; !ok || info.Enabled {
		t.Errorf("Expected product discovered but disabled, got %+v", info)
	}

	fields := structure.CustomFields["post"]
	if len(fields) != 1 || fields[0].Key != "subtitle" {
		t.Errorf("Expected only public custom fields, got %v", fields)
	}
	if fields[0].Label != "Subtitle" {
		t.Errorf("Expected derived label, got %q", fields[0].Label)
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"post", "Posts"},
		{"page", "Pages"},
		{"product", "Product"},
		{"hero_image-url", "Hero Image Url"},
	}

	for _, tt := range tests {
		if got := labelFor(tt.slug); got != tt.want {
			t.Errorf("labelFor(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}
