package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qa-forum-api/internal/config"
	"github.com/qa-forum-api/internal/ratelimit"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PoolStatter reports connection pool statistics
type PoolStatter interface {
	Stats() sql.DBStats
}

// RouterOption customizes NewRouter
type RouterOption func(*routerOptions)

type routerOptions struct {
	limiter ratelimit.Limiter
	health  HealthChecker
	pool    PoolStatter
}

// WithRateLimiter enables per-client rate limiting
func WithRateLimiter(l ratelimit.Limiter) RouterOption {
	return func(o *routerOptions) { o.limiter = l }
}

// WithHealthCheck makes /health probe the given dependency
func WithHealthCheck(h HealthChecker) RouterOption {
	return func(o *routerOptions) { o.health = h }
}

// WithPoolStats adds connection pool figures to /stats
func WithPoolStats(p PoolStatter) RouterOption {
	return func(o *routerOptions) { o.pool = p }
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, opts ...RouterOption) *gin.Engine {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Operational endpoints stay outside the rate limit
	router.GET("/health", healthCheck(o.health))
	router.GET("/stats", statsHandler(services, o.pool, log))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := NewAuthHandler(services, log)
	userHandler := NewUserHandler(services, log)
	questionHandler := NewQuestionHandler(services, log)
	answerHandler := NewAnswerHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	tagHandler := NewTagHandler(services, log)
	exportHandler := NewExportHandler(services, log)
	importHandler := NewImportHandler(services, cfg, log)

	requireAuth := authMiddleware(services.Tokens, log)

	// API v1
	v1 := router.Group("/v1")
	if o.limiter != nil {
		v1.Use(rateLimitMiddleware(o.limiter, log))
	}
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		users := v1.Group("/users")
		{
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.GET("/:id/questions", userHandler.Questions)
			users.GET("/:id/answers", userHandler.Answers)
			users.GET("/:id/tags", userHandler.Tags)
			users.GET("/:id/answered-questions", userHandler.AnsweredQuestions)
			users.DELETE("/:id", requireAuth, userHandler.Delete)
			users.PATCH("/:id/reputation", requireAuth, requireAdmin(), userHandler.AdjustReputation)
		}

		questions := v1.Group("/questions")
		{
			questions.GET("", questionHandler.List)
			questions.GET("/search", questionHandler.Search)
			questions.POST("", requireAuth, questionHandler.Create)
			questions.GET("/:id", questionHandler.Get)
			questions.PATCH("/:id", requireAuth, questionHandler.Edit)
			questions.DELETE("/:id", requireAuth, questionHandler.Delete)
			questions.POST("/:id/views", questionHandler.View)
			questions.POST("/:id/votes", requireAuth, questionHandler.Vote)
			questions.GET("/:id/answers", answerHandler.ListByQuestion)
			questions.POST("/:id/answers", requireAuth, answerHandler.Post)
			questions.GET("/:id/comments", commentHandler.ListOnQuestion)
			questions.POST("/:id/comments", requireAuth, commentHandler.PostOnQuestion)
			questions.GET("/:id/tags", questionHandler.Tags)
		}

		answers := v1.Group("/answers")
		{
			answers.GET("/:id", answerHandler.Get)
			answers.PATCH("/:id", requireAuth, answerHandler.Edit)
			answers.DELETE("/:id", requireAuth, answerHandler.Delete)
			answers.POST("/:id/votes", requireAuth, answerHandler.Vote)
			answers.GET("/:id/comments", commentHandler.ListOnAnswer)
			answers.POST("/:id/comments", requireAuth, commentHandler.PostOnAnswer)
		}

		comments := v1.Group("/comments")
		{
			comments.GET("/:id", commentHandler.Get)
			comments.POST("/:id/upvote", requireAuth, commentHandler.Upvote)
		}

		tags := v1.Group("/tags")
		{
			tags.GET("", tagHandler.List)
			tags.POST("", requireAuth, tagHandler.Create)
			tags.GET("/:id", tagHandler.Get)
			tags.PATCH("/:id", requireAuth, tagHandler.Rename)
			tags.DELETE("/:id", requireAuth, tagHandler.Delete)
		}

		v1.GET("/exports", requireAuth, requireAdmin(), exportHandler.StreamExport)
		v1.POST("/imports/questions", requireAuth, importHandler.ImportQuestions)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(h HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if h != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := h.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "qa-api",
		})
	}
}

// statsHandler returns entity counts
func statsHandler(services *service.Services, pool PoolStatter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		counts := gin.H{}
		for _, resource := range []string{"users", "questions", "answers", "comments", "tags"} {
			n, err := services.Export.GetCount(ctx, resource)
			if err != nil {
				respondError(c, log, err)
				return
			}
			counts[resource] = n
		}

		body := gin.H{
			"database":  counts,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if pool != nil {
			st := pool.Stats()
			body["pool"] = gin.H{
				"open_connections": st.OpenConnections,
				"in_use":           st.InUse,
				"idle":             st.Idle,
				"wait_count":       st.WaitCount,
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
