package inquiries

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/restaurants"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/metrics"
	"github.com/tablekit/backend/pkg/response"
	"github.com/tablekit/backend/pkg/utils"
)

// Handler handles inquiry HTTP endpoints.
type Handler struct {
	svc     *Service
	db      store.DB
	onboard restaurants.Onboarder
	logger  *zap.Logger
}

// NewHandler creates an inquiries handler. onboard may be nil.
func NewHandler(svc *Service, db store.DB, onboard restaurants.Onboarder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, db: db, onboard: onboard, logger: logger}
}

// Create handles POST /inquiry/create.
func (h *Handler) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	inq, err := h.svc.Create(c.Request.Context(), h.db, in)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.Created(c, "Inquiry created successfully", inq)
}

// List handles GET /inquiry/all.
func (h *Handler) List(c *gin.Context) {
	page, limit := utils.PageParams(c, store.DefaultLimit)
	list, total, err := h.svc.List(c.Request.Context(), h.db, store.Page{Number: page, Limit: limit})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Inquiries fetched successfully", response.NewPage(list, total, page, limit))
}

// CreateRestaurant handles POST /inquiry/create-restaurant/:id.
func (h *Handler) CreateRestaurant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid inquiry id")
		return
	}
	ctx := c.Request.Context()
	var p *restaurants.Provisioned
	err = h.db.WithTx(ctx, func(tx store.Store) error {
		var err error
		p, err = h.svc.ConvertToRestaurant(ctx, tx, id)
		return err
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	metrics.Provisioned.WithLabelValues("inquiry").Inc()
	restaurants.Notify(ctx, h.onboard, h.logger, p)
	response.Created(c, "Restaurant and owner created successfully", restaurants.Respond(p))
}
