package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/laurentvergnaud/kaigen-plugin/internal/apperror"
	"github.com/laurentvergnaud/kaigen-plugin/internal/models"
	"github.com/laurentvergnaud/kaigen-plugin/internal/service"
	"github.com/rs/zerolog"
)

// ContentHandler handles content library and update endpoints
type ContentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(services *service.Services, log zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		services: services,
		log:      log.With().Str("handler", "content").Logger(),
	}
}

// ListContent handles GET /kaigen/v1/content
func (h *ContentHandler) ListContent(c *gin.Context) {
	ctx := c.Request.Context()

	postType := c.Query("post_type")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "100"))

	list, err := h.services.Content.ListContent(ctx, postType, page, perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list content")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetPost handles GET /kaigen/v1/content/:id and returns the canonical
// schema-version-2 document
func (h *ContentHandler) GetPost(c *gin.Context) {
	ctx := c.Request.Context()

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || postID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	doc, err := h.services.Content.GetDocument(ctx, postID)
	if err != nil {
		if apperror.KindOf(err) == "" {
			h.log.Error().Err(err).Int64("post_id", postID).Msg("Failed to build document")
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// UpdatePost handles POST /kaigen/v1/content/:id
func (h *ContentHandler) UpdatePost(c *gin.Context) {
	ctx := c.Request.Context()

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || postID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	var req models.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be valid JSON"})
		return
	}
	req.PostID = postID

	resp, err := h.services.Update.HandleUpdate(ctx, &req)
	if err != nil {
		if apperror.KindOf(err) == "" || apperror.StatusOf(err) >= 500 {
			h.log.Error().Err(err).Int64("post_id", postID).Msg("Update failed")
		}
		respondError(c, err)
		return
	}

	h.log.Info().Int64("post_id", postID).Msg("Post updated")
	c.JSON(http.StatusOK, resp)
}

// GetLinks handles GET /kaigen/v1/links
func (h *ContentHandler) GetLinks(c *gin.Context) {
	ctx := c.Request.Context()

	postType := c.Query("post_type")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	candidates, err := h.services.Content.GetLinkCandidates(ctx, postType, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list link candidates")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links": candidates,
		"total": len(candidates),
	})
}

// respondError maps a service error onto an HTTP response using the typed
// error's status hint, hiding internals for untyped errors
func respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status(), gin.H{
			"error": appErr.Message,
			"code":  string(appErr.Kind),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
