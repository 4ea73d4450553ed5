package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/access"
	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/auth"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextActor is the key for the resolved access.Actor in gin context.
	ContextActor = "actor"
)

// JWT returns a middleware that validates the bearer token, loads the live user it
// names and stores the resulting actor in context.
func JWT(jwtService *auth.JWTService, st store.Store, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		u, err := st.Users().GetByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			response.AbortError(c, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			logger.Error("load token subject", zap.String("user_id", claims.UserID.String()), zap.Error(err))
			response.AbortError(c, http.StatusInternalServerError, apperr.InternalMessage)
			return
		}
		if !u.IsActive {
			response.AbortError(c, http.StatusUnauthorized, "User account is inactive")
			return
		}
		actor, err := access.FromUser(u)
		if err != nil {
			kind := apperr.KindOf(err)
			response.AbortError(c, apperr.HTTPStatus(kind), apperr.Message(err))
			return
		}
		c.Set(ContextUserID, u.ID)
		c.Set(ContextUserRole, u.Role)
		c.Set(ContextActor, actor)
		c.Next()
	}
}

// Actor returns the authenticated actor, or nil outside JWT-protected routes.
func Actor(c *gin.Context) access.Actor {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil
	}
	a, _ := v.(access.Actor)
	return a
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Role returns the authenticated user's role.
func Role(c *gin.Context) models.Role {
	v, _ := c.Get(ContextUserRole)
	r, _ := v.(models.Role)
	return r
}
