package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/middleware"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/response"
	"github.com/tablekit/backend/pkg/utils"
)

// Handler handles user HTTP endpoints.
type Handler struct {
	svc    *Service
	db     store.DB
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(svc *Service, db store.DB, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, db: db, logger: logger}
}

// Login handles POST /user/login.
func (h *Handler) Login(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	res, err := h.svc.Login(c.Request.Context(), h.db, in)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "User logged in successfully", res)
}

// SetupPassword handles POST /user/setup-password.
func (h *Handler) SetupPassword(c *gin.Context) {
	var in SetupPasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := h.svc.SetupPassword(c.Request.Context(), h.db, in); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Password set successfully", nil)
}

// Me handles GET /user/me.
func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), h.db, middleware.Actor(c))
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "User fetched successfully", u)
}

// Create handles POST /user/create inside a transaction.
func (h *Handler) Create(c *gin.Context) {
	var in CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	ctx := c.Request.Context()
	actor := middleware.Actor(c)
	var created *models.UserPublic
	err := h.db.WithTx(ctx, func(tx store.Store) error {
		u, err := h.svc.Create(ctx, tx, in, actor)
		if err != nil {
			return err
		}
		created, err = h.svc.public(ctx, tx, u)
		return err
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	h.logger.Info("user created",
		zap.String("user_id", created.ID.String()),
		zap.String("role", string(created.Role)),
		zap.String("created_by", actor.UserID().String()),
	)
	response.Created(c, "User created successfully", created)
}

// List handles GET /user/all.
func (h *Handler) List(c *gin.Context) {
	page, limit := utils.PageParams(c, store.DefaultLimit)
	search := c.Query("search")
	list, total, err := h.svc.List(c.Request.Context(), h.db, ListQuery{
		Search:   search,
		IsActive: utils.StatusParam(c),
		Page:     store.Page{Number: page, Limit: limit},
	}, middleware.Actor(c))
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	msg := "Users fetched successfully"
	if search != "" {
		msg = "Users found matching your search"
	}
	response.OK(c, msg, response.NewPage(list, total, page, limit))
}

// Get handles GET /user/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), h.db, id, middleware.Actor(c))
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "User fetched successfully", u)
}

// Update handles PUT /user/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	ctx := c.Request.Context()
	var updated *models.UserPublic
	err := h.db.WithTx(ctx, func(tx store.Store) error {
		var err error
		updated, err = h.svc.Update(ctx, tx, id, in, middleware.Actor(c))
		return err
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "User updated successfully", updated)
}

// Delete handles DELETE /user/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), h.db, id, middleware.Actor(c)); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "User deleted successfully", nil)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid user id")
		return uuid.Nil, false
	}
	return id, true
}
