package outlets

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/middleware"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/response"
	"github.com/tablekit/backend/pkg/utils"
)

// Handler handles outlet HTTP endpoints.
type Handler struct {
	svc    *Service
	db     store.DB
	logger *zap.Logger
}

// NewHandler creates an outlets handler.
func NewHandler(svc *Service, db store.DB, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, db: db, logger: logger}
}

// Create handles POST /outlet/create.
func (h *Handler) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	o, err := h.svc.Create(c.Request.Context(), h.db, in, middleware.Actor(c))
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.Created(c, "Outlet created successfully", o)
}

// List handles GET /outlet/all.
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
	msg := "Outlets fetched successfully"
	if search != "" {
		msg = "Outlets found matching your search"
	}
	response.OK(c, msg, response.NewPage(list, total, page, limit))
}

// Get handles GET /outlet/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.svc.Get(c.Request.Context(), h.db, id, middleware.Actor(c))
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Outlet fetched successfully", o)
}

// Update handles PUT /outlet/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	o, err := h.svc.Update(c.Request.Context(), h.db, id, in, middleware.Actor(c))
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Outlet updated successfully", o)
}

// Delete handles DELETE /outlet/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), h.db, id, middleware.Actor(c)); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Outlet deleted successfully", nil)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid outlet id")
		return uuid.Nil, false
	}
	return id, true
}
