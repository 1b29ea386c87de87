package api

import (
	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
)

// exportFormats lists the formats each resource can be streamed in
var exportFormats = map[string]map[string]bool{
	"users":     {"ndjson": true, "json": true, "csv": true},
	"questions": {"ndjson": true, "json": true},
	"tags":      {"ndjson": true, "json": true, "csv": true},
}

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/exports?resource=...&format=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	ctx := c.Request.Context()

	resource := c.Query("resource")
	formats, ok := exportFormats[resource]
	if !ok {
		badRequest(c, "resource", "resource must be one of: users, questions, tags")
		return
	}

	format := c.DefaultQuery("format", "ndjson")
	if !formats[format] {
		badRequest(c, "format", "format "+format+" is not supported for "+resource)
		return
	}

	h.log.Info().
		Str("resource", resource).
		Str("format", format).
		Str("by", callerID(c)).
		Msg("Starting streaming export")

	var err error
	switch resource {
	case "users":
		err = h.services.Export.StreamUsers(ctx, c.Writer, format)
	case "questions":
		err = h.services.Export.StreamQuestions(ctx, c.Writer, format)
	case "tags":
		err = h.services.Export.StreamTags(ctx, c.Writer, format)
	}

	if err != nil {
		h.log.Error().Err(err).Str("resource", resource).Msg("Export failed")
		// Can't return error JSON after streaming has started
		if !c.Writer.Written() {
			respondError(c, h.log, err)
		}
	}
}
