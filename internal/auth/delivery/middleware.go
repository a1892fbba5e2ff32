package delivery

import (
	"errors"
	"net/http"
	"strings"

	authdomain "sendahandyman-backend/internal/auth/domain"
	"sendahandyman-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// AdminContextKey is the gin context key holding the verified *AdminUser
const AdminContextKey = "admin"

func AdminMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		admin, err := authUsecase.VerifyAdmin(c.Request.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrNotAdmin):
				c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			case errors.Is(err, usecase.ErrInvalidToken):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify admin"})
			}
			c.Abort()
			return
		}

		c.Set(AdminContextKey, admin)
		c.Next()
	}
}

// CurrentAdmin returns the admin set by AdminMiddleware
func CurrentAdmin(c *gin.Context) *authdomain.AdminUser {
	v, ok := c.Get(AdminContextKey)
	if !ok {
		return nil
	}
	admin, _ := v.(*authdomain.AdminUser)
	return admin
}
