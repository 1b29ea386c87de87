package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

func (h *CommentHandler) list(c *gin.Context, parentType models.ParentType) {
	comments, err := h.services.Comment.ListByParent(c.Request.Context(), parentType, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) post(c *gin.Context, parentType models.ParentType) {
	var in models.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "", "invalid request body")
		return
	}
	comment, err := h.services.Comment.Post(c.Request.Context(), parentType, c.Param("id"), callerID(c), in.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListOnQuestion handles GET /v1/questions/:id/comments
func (h *CommentHandler) ListOnQuestion(c *gin.Context) { h.list(c, models.ParentQuestion) }

// ListOnAnswer handles GET /v1/answers/:id/comments
func (h *CommentHandler) ListOnAnswer(c *gin.Context) { h.list(c, models.ParentAnswer) }

// PostOnQuestion handles POST /v1/questions/:id/comments
func (h *CommentHandler) PostOnQuestion(c *gin.Context) { h.post(c, models.ParentQuestion) }

// PostOnAnswer handles POST /v1/answers/:id/comments
func (h *CommentHandler) PostOnAnswer(c *gin.Context) { h.post(c, models.ParentAnswer) }

// Get handles GET /v1/comments/:id
func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.services.Comment.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Upvote handles POST /v1/comments/:id/upvote
func (h *CommentHandler) Upvote(c *gin.Context) {
	comment, err := h.services.Comment.Upvote(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
