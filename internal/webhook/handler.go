package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estateflow_backend/internal/gateway"
	"estateflow_backend/internal/scoring/transport"
	"estateflow_backend/platform/httpkit"
	"estateflow_backend/platform/logger"
)

type Handler struct {
	svc *Service
	log *logger.Logger
}

func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// LeadCreated handles POST /api/v1/webhook/lead-created. The body is an
// arbitrary lead-shaped object; the normalizer sorts out field aliases.
func (h *Handler) LeadCreated(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	companyID, ok := gateway.CompanyIDFrom(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	result, err := h.svc.Ingest(c.Request.Context(), companyID, raw)
	if httpkit.HandleError(c, err) {
		return
	}

	body := gin.H{
		"success":  true,
		"buyer_id": result.BuyerID,
		"hubspot":  result.HubSpot,
	}
	if result.ScoringError != "" {
		body["scoring_error"] = result.ScoringError
	} else {
		body["scoring"] = transport.NewScoreResponse("", result.Result)
	}
	httpkit.JSON(c, http.StatusCreated, body)
}
