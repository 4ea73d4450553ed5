package restaurants

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/middleware"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/metrics"
	"github.com/tablekit/backend/pkg/response"
	"github.com/tablekit/backend/pkg/utils"
)

// Onboarder delivers a freshly provisioned owner's credentials out of band.
// It runs after the provisioning transaction has committed.
type Onboarder interface {
	OwnerProvisioned(ctx context.Context, owner *models.User, restaurant *models.Restaurant) error
}

// ProvisionedResponse is the public rendering of a provisioning result.
type ProvisionedResponse struct {
	Restaurant *models.Restaurant `json:"restaurant"`
	User       models.UserPublic  `json:"user"`
}

// Respond builds the response body for p. The generated password is not part of it.
func Respond(p *Provisioned) ProvisionedResponse {
	return ProvisionedResponse{Restaurant: p.Restaurant, User: p.Owner.ToPublic()}
}

// Handler handles restaurant HTTP endpoints.
type Handler struct {
	svc     *Service
	db      store.DB
	onboard Onboarder
	logger  *zap.Logger
}

// NewHandler creates a restaurants handler. onboard may be nil.
func NewHandler(svc *Service, db store.DB, onboard Onboarder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, db: db, onboard: onboard, logger: logger}
}

// Create handles POST /restaurant/create.
func (h *Handler) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	ctx := c.Request.Context()
	var p *Provisioned
	err := h.db.WithTx(ctx, func(tx store.Store) error {
		var err error
		p, err = h.svc.Create(ctx, tx, in)
		return err
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	metrics.Provisioned.WithLabelValues("admin").Inc()
	Notify(ctx, h.onboard, h.logger, p)
	response.Created(c, "Restaurant and owner created successfully", Respond(p))
}

// Notify hands a committed provisioning to the onboarder. Failures are logged; the
// rows are already committed and the owner can be re-invited.
func Notify(ctx context.Context, onboard Onboarder, logger *zap.Logger, p *Provisioned) {
	if onboard == nil {
		logger.Warn("onboarding disabled; owner must reset password out of band",
			zap.String("owner_id", p.Owner.ID.String()))
		return
	}
	if err := onboard.OwnerProvisioned(ctx, p.Owner, p.Restaurant); err != nil {
		logger.Error("failed to start owner onboarding",
			zap.String("owner_id", p.Owner.ID.String()),
			zap.String("restaurant_id", p.Restaurant.ID.String()),
			zap.Error(err),
		)
	}
}

// List handles GET /restaurant/all.
func (h *Handler) List(c *gin.Context) {
	page, limit := utils.PageParams(c, store.DefaultLimit)
	list, total, err := h.svc.List(c.Request.Context(), h.db, ListQuery{
		Search:   c.Query("search"),
		IsActive: utils.StatusParam(c),
		Page:     store.Page{Number: page, Limit: limit},
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Restaurants fetched successfully", response.NewPage(list, total, page, limit))
}

// Get handles GET /restaurant/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := h.svc.Get(c.Request.Context(), h.db, id)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Restaurant fetched successfully", r)
}

// Update handles PUT /restaurant/:id.
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
	r, err := h.svc.Update(c.Request.Context(), h.db, id, in)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Restaurant updated successfully", r)
}

// Delete handles DELETE /restaurant/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), h.db, id); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	uid, _ := middleware.UserID(c)
	h.logger.Info("restaurant deleted", zap.String("restaurant_id", id.String()), zap.String("deleted_by", uid.String()))
	response.OK(c, "Restaurant deleted successfully", nil)
}

// UploadLogo handles POST /restaurant/:id/logo (multipart field "logo").
func (h *Handler) UploadLogo(c *gin.Context) {
	if !h.svc.LogosEnabled() {
		response.ServiceUnavailable(c, "Logo upload is not configured")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("logo")
	if err != nil {
		response.BadRequest(c, "Logo file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "Could not read logo file")
		return
	}
	defer f.Close()

	r, err := h.svc.UploadLogo(c.Request.Context(), h.db, id, LogoUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, "Logo uploaded successfully", r)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid restaurant id")
		return uuid.Nil, false
	}
	return id, true
}
