package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"mess-backend/utils"
)

// AuthRequired validates the Bearer token and puts the user id on the
// context for handlers to read via utils.GetCurrentUserID.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Unauthorized(c, "Authorization header must be Bearer token")
			c.Abort()
			return
		}

		userID, err := utils.ParseToken(parts[1], jwtSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
