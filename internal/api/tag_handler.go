package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
)

// TagHandler handles tag endpoints
type TagHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewTagHandler creates a new TagHandler
func NewTagHandler(services *service.Services, log zerolog.Logger) *TagHandler {
	return &TagHandler{
		services: services,
		log:      log.With().Str("handler", "tag").Logger(),
	}
}

// List handles GET /v1/tags
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.services.Tag.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// Create handles POST /v1/tags, returning the existing tag when the name is taken
func (h *TagHandler) Create(c *gin.Context) {
	var in models.TagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "name", "invalid request body")
		return
	}
	tag, err := h.services.Tag.Create(c.Request.Context(), callerID(c), in.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// Get handles GET /v1/tags/:id
func (h *TagHandler) Get(c *gin.Context) {
	tag, err := h.services.Tag.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) authorize(c *gin.Context) (*models.Tag, bool) {
	tag, err := h.services.Tag.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	if !ownerOrAdmin(c, tag.UserID) {
		return nil, false
	}
	return tag, true
}

// Rename handles PATCH /v1/tags/:id
func (h *TagHandler) Rename(c *gin.Context) {
	var in models.TagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "name", "invalid request body")
		return
	}
	tag, ok := h.authorize(c)
	if !ok {
		return
	}
	renamed, err := h.services.Tag.Rename(c.Request.Context(), tag.ID, in.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, renamed)
}

// Delete handles DELETE /v1/tags/:id
func (h *TagHandler) Delete(c *gin.Context) {
	tag, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := h.services.Tag.Delete(c.Request.Context(), tag.ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
