package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/pkg/metrics"
	"github.com/tablekit/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles. ADMIN is always allowed.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := map[models.Role]struct{}{models.RoleAdmin: {}}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextActor); !ok {
			response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if _, ok := allowed[Role(c)]; !ok {
			metrics.Denied("route:" + c.FullPath())
			response.AbortError(c, http.StatusForbidden, "Access denied. You do not have permission to perform this action.")
			return
		}
		c.Next()
	}
}
