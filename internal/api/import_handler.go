package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/config"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
)

// ImportHandler handles import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// ImportQuestions handles POST /v1/imports/questions.
// Accepts a multipart "file" upload or a raw NDJSON body, one question per line.
func (h *ImportHandler) ImportQuestions(c *gin.Context) {
	if limit := h.cfg.Server.MaxImportBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var body io.Reader = c.Request.Body
	file, header, err := c.Request.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		h.log.Info().Str("file", header.Filename).Int64("size", header.Size).Msg("Import file received")
		body = file
	case errors.Is(err, http.ErrNotMultipart):
		// raw NDJSON body
	default:
		badRequest(c, "file", "invalid multipart upload: "+err.Error())
		return
	}

	report, err := h.services.Import.ImportQuestions(c.Request.Context(), callerID(c), body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if report.Successful > 0 {
		status = http.StatusCreated
	}
	c.JSON(status, report)
}
