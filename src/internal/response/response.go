package response

import (
	"errors"
	"net/http"
	"strconv"
	"ticketing-admin-svc/src/internal/models"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Success writes the standard envelope used by every handler.
func Success(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
		"message": message,
	})
}

// Fail writes an error envelope with an explicit status.
func Fail(c *gin.Context, status int, error, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   error,
		"message": message,
	})
}

// Error maps a service error onto its HTTP status. Unknown errors are logged and
// reported as a generic 500.
func Error(c *gin.Context, err error) {
	var limited *models.RateLimitedError

	switch {
	case errors.As(err, &limited):
		writeRateLimitHeaders(c, limited)
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error":   "Too many attempts",
			"message": "Too many attempts, please try again later",
			"resetAt": limited.ResetAt.UTC().Format(time.RFC3339),
		})
	case errors.Is(err, models.ErrInvalidCredentials):
		Fail(c, http.StatusUnauthorized, "Invalid credentials", "Email or password is incorrect")
	case errors.Is(err, models.ErrSessionExpired), errors.Is(err, models.ErrSessionInactive):
		Fail(c, http.StatusUnauthorized, "Session expired", "Please login again")
	case errors.Is(err, models.ErrUnauthorized):
		Fail(c, http.StatusForbidden, "Unauthorized", "Admin privileges required")
	case errors.Is(err, models.ErrForbidden):
		Fail(c, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, models.ErrValidation):
		Fail(c, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, models.ErrNotFound):
		Fail(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, models.ErrAlreadyInSession), errors.Is(err, models.ErrNoActiveSession):
		Fail(c, http.StatusConflict, "Session conflict", err.Error())
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		Fail(c, http.StatusInternalServerError, "Internal server error", "Something went wrong")
	}
}

func writeRateLimitHeaders(c *gin.Context, e *models.RateLimitedError) {
	retryAfter := int(time.Until(e.ResetAt).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(e.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(e.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(e.ResetAt.Unix(), 10))
}
