package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estateflow_backend/internal/gateway"
	"estateflow_backend/internal/scoring/service"
	"estateflow_backend/internal/scoring/transport"
	"estateflow_backend/platform/httpkit"
	"estateflow_backend/platform/logger"
	"estateflow_backend/platform/validator"
)

// maxBatchItems caps one batch call. Enforced before any item is processed.
const maxBatchItems = 50

// RescoreEnqueuer hands a rescore off to the background worker.
type RescoreEnqueuer interface {
	EnqueueRescore(ctx context.Context, params service.RescoreParams) error
}

type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	log      *logger.Logger
	enqueuer RescoreEnqueuer
}

func New(svc *service.Service, val *validator.Validator, log *logger.Logger, enqueuer RescoreEnqueuer) *Handler {
	return &Handler{svc: svc, val: val, log: log, enqueuer: enqueuer}
}

// Score handles POST /api/v1/score.
func (h *Handler) Score(c *gin.Context) {
	var req transport.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	_, res, err := h.svc.ScoreInline(c.Request.Context(), req.ToRaw(), req.DevelopmentContext())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewScoreResponse(req.ExternalID, res))
}

// ScoreBatch handles POST /api/v1/score/batch.
func (h *Handler) ScoreBatch(c *gin.Context) {
	var req transport.BatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	items := req.Items()
	if len(items) == 0 {
		httpkit.Error(c, http.StatusBadRequest, "buyer_ids or leads is required", nil)
		return
	}
	if len(items) > maxBatchItems {
		httpkit.Error(c, http.StatusBadRequest, "too many items", gin.H{"max": maxBatchItems, "got": len(items)})
		return
	}

	companyID, ok := gateway.CompanyIDFrom(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	outcome, err := h.svc.ScoreBatch(c.Request.Context(), companyID, items)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewBatchScoreResponse(outcome))
}

// Rescore handles POST /api/v1/admin/scoring/rescore.
func (h *Handler) Rescore(c *gin.Context) {
	var req transport.RescoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	companyID := tenantFrom(c)

	// An explicit id list bypasses paging and scores just those leads.
	if len(req.BuyerIDs) > 0 {
		if companyID == nil {
			httpkit.Error(c, http.StatusBadRequest, "buyer_ids requires a tenant-scoped token", nil)
			return
		}
		items := make([]service.BatchInput, len(req.BuyerIDs))
		for i, id := range req.BuyerIDs {
			items[i] = service.BatchInput{BuyerID: id}
		}
		outcome, err := h.svc.ScoreBatch(c.Request.Context(), *companyID, items)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, transport.NewBatchScoreResponse(outcome))
		return
	}

	params := service.RescoreParams{
		CompanyID:    companyID,
		OnlyUnscored: !req.Force,
		Limit:        req.Limit,
		Offset:       req.Offset,
	}

	if req.Async {
		if h.enqueuer == nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "background rescore is not configured", nil)
			return
		}
		if err := h.enqueuer.EnqueueRescore(c.Request.Context(), params); err != nil {
			httpkit.HandleError(c, err)
			return
		}
		httpkit.JSON(c, http.StatusAccepted, gin.H{"queued": true})
		return
	}

	result, err := h.svc.Rescore(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Status handles GET /api/v1/admin/scoring/status.
func (h *Handler) Status(c *gin.Context) {
	companyID := tenantFrom(c)
	if companyID == nil {
		httpkit.Error(c, http.StatusBadRequest, "status requires a tenant-scoped token", nil)
		return
	}

	report, err := h.svc.Status(c.Request.Context(), *companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewStatusResponse(report))
}

func tenantFrom(c *gin.Context) *uuid.UUID {
	value, ok := c.Get(httpkit.ContextTenantIDKey)
	if !ok {
		return nil
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
