package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message     string `json:"message"`
	Reason      string `json:"reason,omitempty"`
	Recoverable bool   `json:"recoverable,omitempty"`
	Details     string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger := GetLogger()
				logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	logger := GetLogger()
	logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// JSONReasonError sends an error carrying a machine-readable reason code so
// the client can render the right prompt without parsing messages.
func JSONReasonError(c *gin.Context, status int, message, reason string, recoverable bool) {
	logger := GetLogger()
	logger.Warn(message, zap.String("reason", reason))
	c.JSON(status, ErrorResponse{Message: message, Reason: reason, Recoverable: recoverable})
}
