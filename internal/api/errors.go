package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/rs/zerolog"
)

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindValidation: http.StatusBadRequest,
	apperrors.KindForbidden:  http.StatusForbidden,
	apperrors.KindNotFound:   http.StatusNotFound,
	apperrors.KindConflict:   http.StatusConflict,
	apperrors.KindTransient:  http.StatusServiceUnavailable,
	apperrors.KindInternal:   http.StatusInternalServerError,
}

// errorResponse is the body of every failed request
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// respondError writes err with the status matching its kind
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	kind := apperrors.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := errorResponse{Error: string(kind), Message: err.Error()}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Field = appErr.Field
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		if kind == apperrors.KindInternal {
			body.Message = "internal server error"
		}
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error:   string(apperrors.KindValidation),
		Message: message,
		Field:   field,
	})
}
