// Package auth holds the gin middleware for the three caller classes: player
// (bearer token), admin (player with the admin flag), and the external
// scheduler (shared secret).
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

const userKey = "auth.user"

// BearerToken pulls the token out of the Authorization header.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserFrom returns the authenticated user set by RequireUser.
func UserFrom(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

// RequireUser resolves the bearer token to a user row and stashes it on the
// context.
func RequireUser(repo repository.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			unauthorized(c, "missing bearer token")
			return
		}
		user, err := repo.GetUserByID(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "failed to resolve user",
			})
			return
		}
		if user == nil {
			unauthorized(c, "unknown user")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin runs after RequireUser and gates on the admin flag.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "admin access required",
			})
			return
		}
		c.Next()
	}
}

// CronAuth authorizes the external scheduler via a shared secret, accepted as
// a bearer token or the X-Cron-Secret header. An empty secret disables the
// routes outright.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "not found",
			})
			return
		}
		supplied := BearerToken(c)
		if supplied == "" {
			supplied = strings.TrimSpace(c.GetHeader("X-Cron-Secret"))
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			unauthorized(c, "invalid cron secret")
			return
		}
		c.Next()
	}
}
