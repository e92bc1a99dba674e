package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/server/transcriber"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	var upstream *transcriber.UpstreamError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &upstream) && upstream.StatusCode > 0:
		return upstream.StatusCode
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrOTPInvalid):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"success": false, "message": ...}. Validation
// errors carry their own message, everything else uses msg. Server errors
// are logged.
func (a *API) respondError(c *gin.Context, err error, msg string) {
	status := statusFor(err)

	var verr *common.ValidationError
	if errors.As(err, &verr) {
		msg = verr.Message
	}
	if status == http.StatusRequestEntityTooLarge {
		msg = "File too large"
	}

	if status >= http.StatusInternalServerError {
		a.logger.Error(c.Request.Context(), msg, "error", err, "request_id", c.GetString(requestIDKey))
	}
	respondMessage(c, status, msg)
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func sessionMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return "No active session found"
	case errors.Is(err, common.ErrTokenExpired):
		return "Session expired. Please login again."
	case errors.Is(err, common.ErrInvalidToken):
		return "Invalid session. Please login again."
	default:
		return "Authentication failed"
	}
}
