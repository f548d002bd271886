// Package webhook ingests externally sourced leads: validate, create, score,
// then best-effort CRM push.
package webhook

import (
	"context"

	"github.com/google/uuid"

	"estateflow_backend/internal/hubspot"
	"estateflow_backend/internal/scoring/engine"
	"estateflow_backend/internal/scoring/repository"
	"estateflow_backend/platform/apperr"
	"estateflow_backend/platform/logger"
)

// Scorer creates and scores a lead record.
type Scorer interface {
	CreateAndScore(ctx context.Context, companyID uuid.UUID, rec engine.LeadRecord) (repository.Lead, engine.Result, error)
}

// CRMPusher pushes a scored lead outbound, best effort.
type CRMPusher interface {
	PushLead(ctx context.Context, companyID uuid.UUID, rec engine.LeadRecord, res engine.Result) hubspot.PushResult
}

type Service struct {
	scorer Scorer
	crm    CRMPusher
	log    *logger.Logger
}

func NewService(scorer Scorer, crm CRMPusher, log *logger.Logger) *Service {
	return &Service{scorer: scorer, crm: crm, log: log}
}

// IngestResult reports everything that happened to one inbound lead. Created
// is true as soon as the record exists, even if scoring or the CRM push had
// problems afterwards.
type IngestResult struct {
	Created      bool
	BuyerID      uuid.UUID
	Result       engine.Result
	ScoringError string
	HubSpot      hubspot.PushResult
}

// Ingest validates and processes one inbound lead payload.
func (s *Service) Ingest(ctx context.Context, companyID uuid.UUID, raw map[string]any) (IngestResult, error) {
	rec := engine.Normalize(raw)
	if rec.FullName == "" && rec.FirstName == "" && rec.Email == "" {
		return IngestResult{}, apperr.Validation("at least one of full_name, first_name or email is required")
	}

	lead, res, err := s.scorer.CreateAndScore(ctx, companyID, rec)
	if err != nil {
		if lead.ID == uuid.Nil {
			// Nothing was created; this is a real failure.
			return IngestResult{}, err
		}
		// The record exists, so the ingest succeeded; report the scoring
		// problem alongside it and skip the CRM push.
		s.log.Error("webhook lead scored with errors", "lead_id", lead.ID, "error", err)
		return IngestResult{
			Created:      true,
			BuyerID:      lead.ID,
			ScoringError: err.Error(),
			HubSpot:      hubspot.PushResult{Pushed: false, Reason: "skipped: scoring incomplete"},
		}, nil
	}

	return IngestResult{
		Created: true,
		BuyerID: lead.ID,
		Result:  res,
		HubSpot: s.crm.PushLead(ctx, companyID, rec, res),
	}, nil
}
