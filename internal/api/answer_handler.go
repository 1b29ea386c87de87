package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
)

// AnswerHandler handles answer endpoints
type AnswerHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAnswerHandler creates a new AnswerHandler
func NewAnswerHandler(services *service.Services, log zerolog.Logger) *AnswerHandler {
	return &AnswerHandler{
		services: services,
		log:      log.With().Str("handler", "answer").Logger(),
	}
}

// ListByQuestion handles GET /v1/questions/:id/answers
func (h *AnswerHandler) ListByQuestion(c *gin.Context) {
	answers, err := h.services.Answer.ListByQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

// Post handles POST /v1/questions/:id/answers and returns the updated question
func (h *AnswerHandler) Post(c *gin.Context) {
	var in models.AnswerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "", "invalid request body")
		return
	}
	question, err := h.services.Answer.Post(c.Request.Context(), callerID(c), c.Param("id"), in.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// Get handles GET /v1/answers/:id
func (h *AnswerHandler) Get(c *gin.Context) {
	answer, err := h.services.Answer.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *AnswerHandler) authorize(c *gin.Context) (*models.Answer, bool) {
	answer, err := h.services.Answer.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	if !ownerOrAdmin(c, answer.UserID) {
		return nil, false
	}
	return answer, true
}

// Edit handles PATCH /v1/answers/:id
func (h *AnswerHandler) Edit(c *gin.Context) {
	var in models.AnswerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "", "invalid request body")
		return
	}
	answer, ok := h.authorize(c)
	if !ok {
		return
	}
	updated, err := h.services.Answer.Edit(c.Request.Context(), answer.ID, in.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/answers/:id
func (h *AnswerHandler) Delete(c *gin.Context) {
	answer, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := h.services.Answer.Delete(c.Request.Context(), answer.ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Vote handles POST /v1/answers/:id/votes
func (h *AnswerHandler) Vote(c *gin.Context) {
	var in models.VoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "delta", "invalid request body")
		return
	}
	answer, err := h.services.Answer.Vote(c.Request.Context(), callerID(c), c.Param("id"), in.Delta)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}
