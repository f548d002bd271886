package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"estateflow_backend/internal/hubspot"
	"estateflow_backend/internal/scoring/engine"
	"estateflow_backend/internal/scoring/repository"
	"estateflow_backend/platform/apperr"
	"estateflow_backend/platform/logger"
)

type fakeScorer struct {
	lead   repository.Lead
	result engine.Result
	err    error
	gotRec engine.LeadRecord
}

func (f *fakeScorer) CreateAndScore(_ context.Context, _ uuid.UUID, rec engine.LeadRecord) (repository.Lead, engine.Result, error) {
	f.gotRec = rec
	return f.lead, f.result, f.err
}

type fakeCRM struct {
	result hubspot.PushResult
	calls  int
}

func (f *fakeCRM) PushLead(context.Context, uuid.UUID, engine.LeadRecord, engine.Result) hubspot.PushResult {
	f.calls++
	return f.result
}

func newWebhookService(scorer *fakeScorer, crm *fakeCRM) *Service {
	return NewService(scorer, crm, logger.New("test"))
}

func TestIngestRequiresIdentity(t *testing.T) {
	svc := newWebhookService(&fakeScorer{}, &fakeCRM{})

	_, err := svc.Ingest(context.Background(), uuid.New(), map[string]any{
		"budget_max": 300000,
		"timeline":   "1-3 months",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIngestAcceptsAnyIdentityField(t *testing.T) {
	for _, raw := range []map[string]any{
		{"full_name": "Jane Doe"},
		{"first_name": "Jane"},
		{"email": "jane@gmail.com"},
	} {
		scorer := &fakeScorer{lead: repository.Lead{ID: uuid.New()}}
		svc := newWebhookService(scorer, &fakeCRM{})
		if _, err := svc.Ingest(context.Background(), uuid.New(), raw); err != nil {
			t.Fatalf("Ingest(%v): %v", raw, err)
		}
	}
}

func TestIngestPushesToCRM(t *testing.T) {
	scorer := &fakeScorer{
		lead:   repository.Lead{ID: uuid.New()},
		result: engine.Result{Classification: engine.ClassHotLead, Priority: engine.PriorityP1},
	}
	crm := &fakeCRM{result: hubspot.PushResult{Pushed: true, HubSpotID: "hs-1"}}
	svc := newWebhookService(scorer, crm)

	result, err := svc.Ingest(context.Background(), uuid.New(), map[string]any{"full_name": "Jane Doe"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !result.Created || result.BuyerID != scorer.lead.ID {
		t.Fatalf("result = %+v", result)
	}
	if crm.calls != 1 || !result.HubSpot.Pushed {
		t.Fatalf("crm calls = %d, hubspot = %+v", crm.calls, result.HubSpot)
	}
}

func TestIngestCreatedButScoringFailed(t *testing.T) {
	scorer := &fakeScorer{
		lead: repository.Lead{ID: uuid.New()},
		err:  errors.New("store write timed out"),
	}
	crm := &fakeCRM{}
	svc := newWebhookService(scorer, crm)

	result, err := svc.Ingest(context.Background(), uuid.New(), map[string]any{"email": "jane@gmail.com"})
	if err != nil {
		t.Fatalf("created lead must not surface as a request error, got %v", err)
	}
	if !result.Created || result.ScoringError == "" {
		t.Fatalf("result = %+v", result)
	}
	if crm.calls != 0 {
		t.Fatal("CRM push should be skipped when scoring is incomplete")
	}
}

func TestIngestCreateFailed(t *testing.T) {
	scorer := &fakeScorer{err: apperr.Wrap(apperr.KindInternal, "create lead", errors.New("down"))}
	svc := newWebhookService(scorer, &fakeCRM{})

	_, err := svc.Ingest(context.Background(), uuid.New(), map[string]any{"email": "jane@gmail.com"})
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
