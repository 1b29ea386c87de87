package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in models.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "", "invalid request body")
		return
	}

	user, err := h.services.User.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in models.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "", "invalid request body")
		return
	}

	token, user, err := h.services.User.Authenticate(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
