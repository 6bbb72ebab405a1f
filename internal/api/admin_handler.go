package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/service"
	"github.com/rs/zerolog"
)

// AdminHandler handles structure discovery, settings and sync endpoints
type AdminHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// GetStructure handles GET /kaigen/v1/structure
func (h *AdminHandler) GetStructure(c *gin.Context) {
	structure, err := h.services.Structure.GetStructure(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build site structure")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, structure)
}

// GetUpdateLogs handles GET /kaigen/v1/logs
func (h *AdminHandler) GetUpdateLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.services.Update.GetUpdateLogs(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load update logs")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
	})
}

// GetSettings handles GET /kaigen/v1/settings. The stored API key is never
// returned.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.services.Settings.Get(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load settings")
		respondError(c, err)
		return
	}

	settings.APIKeyEncrypted = ""
	c.JSON(http.StatusOK, settings)
}

// SaveSettings handles PUT /kaigen/v1/settings
func (h *AdminHandler) SaveSettings(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		EnabledPostTypes []string `json:"enabled_post_types"`
		SEOPlugin        string   `json:"seo_plugin"`
		EditorType       string   `json:"editor_type"`
		APIKey           string   `json:"api_key"`
		APIURL           string   `json:"api_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be valid JSON"})
		return
	}

	settings, err := h.services.Settings.Get(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.EnabledPostTypes != nil {
		settings.EnabledPostTypes = req.EnabledPostTypes
	}
	if req.SEOPlugin != "" {
		settings.SEOPlugin = req.SEOPlugin
	}
	if req.EditorType != "" {
		settings.EditorType = req.EditorType
	}
	if req.APIURL != "" {
		settings.APIURL = req.APIURL
	}

	if err := h.services.Settings.Save(ctx, settings); err != nil {
		h.log.Error().Err(err).Msg("Failed to save settings")
		respondError(c, err)
		return
	}

	if req.APIKey != "" {
		if err := h.services.Settings.StoreAPIKey(ctx, req.APIKey, req.APIURL); err != nil {
			h.log.Error().Err(err).Msg("Failed to store API key")
			respondError(c, err)
			return
		}
	}

	settings.APIKeyEncrypted = ""
	c.JSON(http.StatusOK, settings)
}

// ValidateKey handles POST /kaigen/v1/settings/validate-key
func (h *AdminHandler) ValidateKey(c *gin.Context) {
	result, err := h.services.Remote.ValidateKey(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("API key validation failed")
		c.JSON(http.StatusBadGateway, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SyncStructure handles POST /kaigen/v1/sync/structure
func (h *AdminHandler) SyncStructure(c *gin.Context) {
	if err := h.services.Remote.SyncStructure(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("Structure sync failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

// SyncContent handles POST /kaigen/v1/sync/content
func (h *AdminHandler) SyncContent(c *gin.Context) {
	if err := h.services.Remote.SyncContent(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("Content sync failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}
