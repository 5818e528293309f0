package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locktheday/internal/models"
	"locktheday/internal/repositories"
)

// RequireAdmin allows admin and superadmin callers through. Must run after
// Auth. The database check is the authoritative one; nothing client-side is
// trusted.
func RequireAdmin(roleRepo repositories.RoleRepository) gin.HandlerFunc {
	return requireRole(roleRepo, models.IsAdmin)
}

// RequireSuperAdmin allows only superadmin callers through.
func RequireSuperAdmin(roleRepo repositories.RoleRepository) gin.HandlerFunc {
	return requireRole(roleRepo, func(role string) bool {
		return role == models.RoleSuperAdmin
	})
}

func requireRole(roleRepo repositories.RoleRepository, allowed func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("userID")
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		role, err := roleRepo.GetRole(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve role"})
			return
		}
		if !allowed(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}
