package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/careops/scheduler-api/pkg/errors"
)

// ErrorBody is the wire shape of every error response: a stable kind the
// frontend can branch on plus a human-readable message.
type ErrorBody struct {
	Error   errors.Kind `json:"error"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
}

// RespondWithError renders err with its mapped status code. Internal error
// text is only included in gin debug mode; production responses carry the
// generic message.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Storage(err)
	}

	if appErr.Kind == errors.KindStorage {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("request failed")
	}

	body := ErrorBody{
		Error:   appErr.Kind,
		Message: appErr.Message,
	}
	if gin.Mode() == gin.DebugMode && appErr.Err != nil {
		body.Detail = appErr.Err.Error()
	}

	c.AbortWithStatusJSON(appErr.StatusCode(), body)
}

// RespondWithMessage writes a bare {message} body.
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}
