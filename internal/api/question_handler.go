package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
)

// QuestionHandler handles question endpoints
type QuestionHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler
func NewQuestionHandler(services *service.Services, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		services: services,
		log:      log.With().Str("handler", "question").Logger(),
	}
}

// List handles GET /v1/questions?sort=newest|active|unanswered
func (h *QuestionHandler) List(c *gin.Context) {
	order := models.QuestionOrder(c.DefaultQuery("sort", string(models.OrderNewest)))
	questions, err := h.services.Question.List(c.Request.Context(), order)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Search handles GET /v1/questions/search?q=...
func (h *QuestionHandler) Search(c *gin.Context) {
	questions, err := h.services.Question.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Create handles POST /v1/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var in models.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "", "invalid request body")
		return
	}
	question, err := h.services.Question.Create(c.Request.Context(), callerID(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// Get handles GET /v1/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.services.Question.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// Tags handles GET /v1/questions/:id/tags
func (h *QuestionHandler) Tags(c *gin.Context) {
	question, err := h.services.Question.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, question.Tags)
}

// authorize loads the question and checks the caller may modify it
func (h *QuestionHandler) authorize(c *gin.Context) (*models.Question, bool) {
	question, err := h.services.Question.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	if !ownerOrAdmin(c, question.UserID) {
		return nil, false
	}
	return question, true
}

// Edit handles PATCH /v1/questions/:id
func (h *QuestionHandler) Edit(c *gin.Context) {
	var in models.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "", "invalid request body")
		return
	}
	question, ok := h.authorize(c)
	if !ok {
		return
	}
	updated, err := h.services.Question.Edit(c.Request.Context(), question.ID, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	question, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := h.services.Question.Delete(c.Request.Context(), question.ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// View handles POST /v1/questions/:id/views
func (h *QuestionHandler) View(c *gin.Context) {
	question, err := h.services.Question.IncrementViews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// Vote handles POST /v1/questions/:id/votes
func (h *QuestionHandler) Vote(c *gin.Context) {
	var in models.VoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "delta", "invalid request body")
		return
	}
	question, err := h.services.Question.Vote(c.Request.Context(), callerID(c), c.Param("id"), in.Delta)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, question)
}
