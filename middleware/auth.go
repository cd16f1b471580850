package middleware

import (
	"errors"
	"net/http"
	"strings"

	"coachly/utils"

	"github.com/gin-gonic/gin"
)

// CoachAuthMiddleware guards coach-only endpoints: it requires a bearer
// token with the coach role and puts the subject into the context as
// "coachID".
func CoachAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "insufficient authorization"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		coachID, err := utils.ExtractCoachID(tokenString)
		if errors.Is(err, utils.ErrNotCoach) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "coach role required"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "insufficient authorization"})
			return
		}

		c.Set("coachID", coachID)
		c.Next()
	}
}
