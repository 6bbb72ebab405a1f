package service

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/document"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/repository"
	"github.com/rs/zerolog"
)

const settingsOptionKey = "kaigen_settings"

// settingsService is the concrete implementation of SettingsService. API
// credentials are encrypted at rest with AES-GCM keyed from the configured
// credential secret.
type settingsService struct {
	options repository.OptionRepository
	cfg     *config.Config
	log     zerolog.Logger
}

func newSettingsService(options repository.OptionRepository, cfg *config.Config, log zerolog.Logger) *settingsService {
	return &settingsService{
		options: options,
		cfg:     cfg,
		log:     log.With().Str("service", "settings").Logger(),
	}
}

// Get loads the connector settings, applying configuration defaults for
// anything not stored yet
func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings := &models.Settings{
		EnabledPostTypes: s.cfg.Site.EnabledPostTypes,
		SEOPlugin:        document.SEOPluginNone,
		EditorType:       "gutenberg",
		APIURL:           s.cfg.Kaigen.APIURL,
	}

	raw, err := s.options.Get(ctx, settingsOptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if raw == nil {
		return settings, nil
	}

	var stored models.Settings
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if len(stored.EnabledPostTypes) > 0 {
		settings.EnabledPostTypes = stored.EnabledPostTypes
	}
	if stored.SEOPlugin != "" {
		settings.SEOPlugin = document.NormalizeSEOPlugin(stored.SEOPlugin)
	}
	if stored.EditorType != "" {
		settings.EditorType = stored.EditorType
	}
	if stored.APIURL != "" {
		settings.APIURL = stored.APIURL
	}
	settings.APIKeyEncrypted = stored.APIKeyEncrypted
	settings.ProjectID = stored.ProjectID
	settings.PlatformID = stored.PlatformID

	return settings, nil
}

// Save persists the connector settings
func (s *settingsService) Save(ctx context.Context, settings *models.Settings) error {
	settings.SEOPlugin = document.NormalizeSEOPlugin(settings.SEOPlugin)
	if err := s.options.Set(ctx, settingsOptionKey, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.log.Info().Strs("enabled_post_types", settings.EnabledPostTypes).
		Str("seo_plugin", settings.SEOPlugin).
		Msg("Settings saved")
	return nil
}

// StoreAPIKey encrypts and stores the remote API credentials
func (s *settingsService) StoreAPIKey(ctx context.Context, apiKey, apiURL string) error {
	encrypted, err := s.encrypt(apiKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt API key: %w", err)
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	settings.APIKeyEncrypted = encrypted
	if apiURL != "" {
		settings.APIURL = apiURL
	}
	return s.Save(ctx, settings)
}

// APIKey returns the decrypted API key, falling back to the configured one
// when no key is stored
func (s *settingsService) APIKey(ctx context.Context) (string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	if settings.APIKeyEncrypted == "" {
		return s.cfg.Kaigen.APIKey, nil
	}
	return s.decrypt(settings.APIKeyEncrypted)
}

func (s *settingsService) encryptionKey() ([]byte, error) {
	if s.cfg.Kaigen.CredentialSecret == "" {
		return nil, fmt.Errorf("KAIGEN_CREDENTIAL_SECRET is not configured")
	}
	key := sha256.Sum256([]byte(s.cfg.Kaigen.CredentialSecret))
	return key[:], nil
}

func (s *settingsService) encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	key, err := s.encryptionKey()
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *settingsService) decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	key, err := s.encryptionKey()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("stored credential is not valid base64: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("stored credential is truncated")
	}

	plaintext, err := gcm.Open(nil, data[:gcm.NonceSize()], data[gcm.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt stored credential: %w", err)
	}
	return string(plaintext), nil
}
