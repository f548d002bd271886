package webhook

import (
	"estateflow_backend/internal/gateway"
	apphttp "estateflow_backend/internal/http"
	"estateflow_backend/platform/logger"
)

// Module is the webhook ingestion bounded context implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(scorer Scorer, crm CRMPusher, log *logger.Logger) *Module {
	svc := NewService(scorer, crm, log)
	return &Module{handler: NewHandler(svc, log)}
}

func (m *Module) Name() string {
	return "webhook"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/webhook/lead-created", append(ctx.Gateway(gateway.PermWebhook), m.handler.LeadCreated)...)
}

var _ apphttp.Module = (*Module)(nil)
