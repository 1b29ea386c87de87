package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/auth"
	"github.com/qa-forum-api/internal/ratelimit"
	"github.com/rs/zerolog"
)

const (
	ctxUserID  = "user_id"
	ctxIsAdmin = "is_admin"
)

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
					Error:   "internal",
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()
		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		if userID := c.GetString(ctxUserID); userID != "" {
			event = event.Str("user_id", userID)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// rateLimitMiddleware rejects clients over their request budget with 429.
// A limiter failure lets the request through.
func rateLimitMiddleware(limiter ratelimit.Limiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn().Err(err).Msg("Rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error:   "rate_limited",
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}

// authMiddleware requires a valid bearer token and stores the caller in the context
func authMiddleware(tokens *auth.TokenIssuer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if header == "" || len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "unauthorized",
				Message: "authorization header with a bearer token is required",
			})
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			log.Debug().Err(err).Msg("Rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "unauthorized",
				Message: "invalid or expired token",
			})
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// requireAdmin allows only admin callers; it must run after authMiddleware
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
				Error:   "forbidden",
				Message: "admin privileges are required",
			})
			return
		}
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// ownerOrAdmin reports whether the caller owns the resource or is an admin,
// writing a 403 when not
func ownerOrAdmin(c *gin.Context, ownerID string) bool {
	if c.GetBool(ctxIsAdmin) || (ownerID != "" && ownerID == callerID(c)) {
		return true
	}
	c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
		Error:   "forbidden",
		Message: "only the owner or an admin may do this",
	})
	return false
}
