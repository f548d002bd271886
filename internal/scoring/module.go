// Package scoring wires the lead scoring bounded context: engine,
// repository, service and HTTP surface.
package scoring

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"estateflow_backend/internal/gateway"
	apphttp "estateflow_backend/internal/http"
	"estateflow_backend/internal/scoring/engine"
	"estateflow_backend/internal/scoring/handler"
	"estateflow_backend/internal/scoring/repository"
	"estateflow_backend/internal/scoring/service"
	"estateflow_backend/platform/config"
	"estateflow_backend/platform/logger"
	"estateflow_backend/platform/validator"
)

// Module is the scoring bounded context implementing http.Module.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, cfg config.ScoringConfig, val *validator.Validator, log *logger.Logger, enqueuer handler.RescoreEnqueuer) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, engine.New(), cfg, log)
	return &Module{
		service: svc,
		handler: handler.New(svc, val, log, enqueuer),
	}
}

func (m *Module) Name() string {
	return "scoring"
}

// Service exposes the scoring service to sibling modules (webhook ingestion,
// the background rescore worker).
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/score", append(ctx.Gateway(gateway.PermScoreSingle), m.handler.Score)...)
	ctx.V1.POST("/score/batch", append(ctx.Gateway(gateway.PermScoreBatch), m.handler.ScoreBatch)...)

	admin := ctx.Admin.Group("/scoring")
	admin.POST("/rescore", m.handler.Rescore)
	admin.GET("/status", m.handler.Status)
}

var _ apphttp.Module = (*Module)(nil)
