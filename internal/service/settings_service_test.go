package service

import (
	"context"
	"testing"
)

func TestSettingsDefaults(t *testing.T) {
	env := newTestEnv()

	settings, err := env.settings.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if len(settings.EnabledPostTypes) != 2 || settings.EnabledPostTypes[0] != "post" {
		t.Errorf("Unexpected default post types %v", settings.EnabledPostTypes)
	}
	if settings.SEOPlugin != "none" {
		t.Errorf("Expected default SEO plugin none, got %q", settings.SEOPlugin)
	}
	if settings.EditorType != "gutenberg" {
		t.Errorf("Expected default editor gutenberg, got %q", settings.EditorType)
	}
	if settings.APIURL != "https://kaigen.app" {
		t.Errorf("Expected API URL from config, got %q", settings.APIURL)
	}
}

func TestSettingsSaveAndReload(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	settings, _ := env.settings.Get(ctx)
	settings.EnabledPostTypes = []string{"post", "page", "product"}
	settings.SEOPlugin = "rankmath"
	settings.EditorType = "classic"

	if err := env.settings.Save(ctx, settings); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := env.settings.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(reloaded.EnabledPostTypes) != 3 {
		t.Errorf("Unexpected post types %v", reloaded.EnabledPostTypes)
	}
	if reloaded.SEOPlugin != "rankmath" || reloaded.EditorType != "classic" {
		t.Errorf("Unexpected settings %+v", reloaded)
	}
}

func TestSettingsSaveNormalizesSEOPlugin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	settings, _ := env.settings.Get(ctx)
	settings.SEOPlugin = "all-in-one-seo"

	if err := env.settings.Save(ctx, settings); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, _ := env.settings.Get(ctx)
	if reloaded.SEOPlugin != "none" {
		t.Errorf("Expected unknown plugin normalized to none, got %q", reloaded.SEOPlugin)
	}
}

func TestAPIKeyRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.settings.StoreAPIKey(ctx, "kg_live_123", "https://api.kaigen.app"); err != nil {
		t.Fatalf("StoreAPIKey failed: %v", err)
	}

	key, err := env.settings.APIKey(ctx)
	if err != nil {
		t.Fatalf("APIKey failed: %v", err)
	}
	if key != "kg_live_123" {
		t.Errorf("Expected decrypted key back, got %q", key)
	}

	// The key is not stored in the clear
	settings, _ := env.settings.Get(ctx)
	if settings.APIKeyEncrypted == "kg_live_123" || settings.APIKeyEncrypted == "" {
		t.Errorf("Expected an encrypted credential, got %q", settings.APIKeyEncrypted)
	}
	if settings.APIURL != "https://api.kaigen.app" {
		t.Errorf("Expected API URL updated, got %q", settings.APIURL)
	}
}

func TestAPIKeyFallsBackToConfig(t *testing.T) {
	env := newTestEnv()
	env.cfg.Kaigen.APIKey = "kg_from_env"

	key, err := env.settings.APIKey(context.Background())
	if err != nil {
		t.Fatalf("APIKey failed: %v", err)
	}
	if key != "kg_from_env" {
		t.Errorf("Expected configured key, got %q", key)
	}
}

func TestStoreAPIKeyRequiresSecret(t *testing.T) {
	env := newTestEnv()
	env.cfg.Kaigen.CredentialSecret = ""

	if err := env.settings.StoreAPIKey(context.Background(), "kg_live_123", ""); err == nil {
		t.Error("Expected error without a credential secret")
	}
}
