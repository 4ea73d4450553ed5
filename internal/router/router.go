// Package router assembles the HTTP surface.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/auth"
	"github.com/tablekit/backend/internal/inquiries"
	"github.com/tablekit/backend/internal/middleware"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/outlets"
	"github.com/tablekit/backend/internal/restaurants"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/users"
	"github.com/tablekit/backend/pkg/metrics"
	"github.com/tablekit/backend/pkg/response"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the router wires together.
type Deps struct {
	DB          store.DB
	JWT         *auth.JWTService
	Users       *users.Handler
	Restaurants *restaurants.Handler
	Outlets     *outlets.Handler
	Inquiries   *inquiries.Handler
	CORSOrigins string
	Checks      map[string]HealthCheck
	Logger      *zap.Logger
}

// New builds the gin engine with every route registered.
func New(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(d.CORSOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(metrics.Middleware())

	router.GET("/health", health(d.Checks))
	router.GET("/metrics", metrics.Handler())

	jwt := middleware.JWT(d.JWT, d.DB, logger)
	admin := middleware.RequireRole()
	staffManagers := middleware.RequireRole(models.RoleOwner, models.RoleManager)
	owners := middleware.RequireRole(models.RoleOwner)

	inquiry := router.Group("/inquiry")
	{
		inquiry.POST("/create", d.Inquiries.Create)
		inquiry.GET("/all", jwt, admin, d.Inquiries.List)
		inquiry.POST("/create-restaurant/:id", jwt, admin, d.Inquiries.CreateRestaurant)
	}

	user := router.Group("/user")
	{
		user.POST("/login", d.Users.Login)
		user.POST("/setup-password", d.Users.SetupPassword)
		user.GET("/me", jwt, d.Users.Me)
		user.POST("/create", jwt, staffManagers, d.Users.Create)
		user.GET("/all", jwt, staffManagers, d.Users.List)
		user.GET("/:id", jwt, staffManagers, d.Users.Get)
		user.PUT("/:id", jwt, staffManagers, d.Users.Update)
		user.DELETE("/:id", jwt, staffManagers, d.Users.Delete)
	}

	restaurant := router.Group("/restaurant", jwt, admin)
	{
		restaurant.POST("/create", d.Restaurants.Create)
		restaurant.GET("/all", d.Restaurants.List)
		restaurant.GET("/:id", d.Restaurants.Get)
		restaurant.PUT("/:id", d.Restaurants.Update)
		restaurant.DELETE("/:id", d.Restaurants.Delete)
		restaurant.POST("/:id/logo", d.Restaurants.UploadLogo)
	}

	outlet := router.Group("/outlet", jwt, owners)
	{
		outlet.POST("/create", d.Outlets.Create)
		outlet.GET("/all", d.Outlets.List)
		outlet.GET("/:id", d.Outlets.Get)
		outlet.PUT("/:id", d.Outlets.Update)
		outlet.DELETE("/:id", d.Outlets.Delete)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Route not found")
	})
	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status := gin.H{}
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, response.Body{
				StatusCode: http.StatusServiceUnavailable, Message: "Service degraded", Success: false, Data: status,
			})
			return
		}
		status["status"] = "ok"
		response.OK(c, "Service healthy", status)
	}
}
