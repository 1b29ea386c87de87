package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
)

// UserHandler handles user endpoints
type UserHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// List handles GET /v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.services.User.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	profile, err := h.services.User.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Questions handles GET /v1/users/:id/questions
func (h *UserHandler) Questions(c *gin.Context) {
	questions, err := h.services.Question.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Answers handles GET /v1/users/:id/answers
func (h *UserHandler) Answers(c *gin.Context) {
	answers, err := h.services.Answer.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

// Tags handles GET /v1/users/:id/tags
func (h *UserHandler) Tags(c *gin.Context) {
	tags, err := h.services.Tag.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// AnsweredQuestions handles GET /v1/users/:id/answered-questions
func (h *UserHandler) AnsweredQuestions(c *gin.Context) {
	questions, err := h.services.Question.ListAnsweredBy(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Delete handles DELETE /v1/users/:id. Users may delete themselves; admins anyone.
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !ownerOrAdmin(c, id) {
		return
	}
	if err := h.services.User.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info().Str("user_id", id).Str("by", callerID(c)).Msg("User deleted")
	c.Status(http.StatusNoContent)
}

// AdjustReputation handles PATCH /v1/users/:id/reputation
func (h *UserHandler) AdjustReputation(c *gin.Context) {
	var in models.ReputationChange
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "change", "invalid request body")
		return
	}
	user, err := h.services.User.AdjustReputation(c.Request.Context(), c.Param("id"), in.Change)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
