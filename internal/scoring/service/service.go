package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"estateflow_backend/internal/scoring/engine"
	"estateflow_backend/internal/scoring/repository"
	"estateflow_backend/platform/apperr"
	"estateflow_backend/platform/config"
	"estateflow_backend/platform/logger"
)

// LeadStore is the persistence surface the service needs.
type LeadStore interface {
	GetByID(ctx context.Context, companyID, id uuid.UUID) (repository.Lead, error)
	ResolveByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]repository.Lead, error)
	ListPage(ctx context.Context, params repository.ListParams) ([]repository.Lead, error)
	Create(ctx context.Context, params repository.CreateParams) (repository.Lead, error)
	UpdateScores(ctx context.Context, companyID, id uuid.UUID, params repository.UpdateScoresParams) error
	Status(ctx context.Context, companyID uuid.UUID) (repository.Status, error)
}

type Service struct {
	store        LeadStore
	engine       *engine.Engine
	log          *logger.Logger
	workers      int
	storeTimeout time.Duration
}

func New(store LeadStore, eng *engine.Engine, cfg config.ScoringConfig, log *logger.Logger) *Service {
	return &Service{
		store:        store,
		engine:       eng,
		log:          log,
		workers:      cfg.GetRescoreWorkers(),
		storeTimeout: cfg.GetStoreTimeout(),
	}
}

// ScoreInline scores an ad-hoc payload without touching storage.
func (s *Service) ScoreInline(ctx context.Context, raw map[string]any, developments []engine.Development) (engine.LeadRecord, engine.Result, error) {
	rec := engine.Normalize(raw)
	res, err := s.engine.Score(ctx, rec, developments)
	if err != nil {
		return engine.LeadRecord{}, engine.Result{}, apperr.Wrap(apperr.KindInternal, "scoring failed", err)
	}
	return rec, res, nil
}

// ScoreStored fetches a lead, scores it and persists the result.
func (s *Service) ScoreStored(ctx context.Context, companyID, leadID uuid.UUID) (engine.Result, error) {
	lead, err := s.store.GetByID(ctx, companyID, leadID)
	if err != nil {
		if err == repository.ErrNotFound {
			return engine.Result{}, apperr.NotFound("lead not found")
		}
		return engine.Result{}, apperr.Wrap(apperr.KindInternal, "load lead", err)
	}

	res, err := s.engine.Score(ctx, lead.ToRecord(), nil)
	if err != nil {
		return engine.Result{}, apperr.Wrap(apperr.KindInternal, "scoring failed", err)
	}
	if err := s.persist(ctx, companyID, leadID, res); err != nil {
		return engine.Result{}, err
	}
	return res, nil
}

// CreateAndScore inserts a new lead from a normalized record, scores it and
// persists the scores. Used by the inbound lead webhook. When creation
// succeeded but scoring or persistence did not, the created lead is returned
// alongside the error so the caller can still acknowledge the record.
func (s *Service) CreateAndScore(ctx context.Context, companyID uuid.UUID, rec engine.LeadRecord) (repository.Lead, engine.Result, error) {
	lead, err := s.store.Create(ctx, repository.CreateParams{CompanyID: companyID, Record: rec})
	if err != nil {
		return repository.Lead{}, engine.Result{}, apperr.Wrap(apperr.KindInternal, "create lead", err)
	}

	res, err := s.engine.Score(ctx, lead.ToRecord(), nil)
	if err != nil {
		return lead, engine.Result{}, apperr.Wrap(apperr.KindInternal, "scoring failed", err)
	}
	if err := s.persist(ctx, companyID, lead.ID, res); err != nil {
		return lead, res, err
	}
	return lead, res, nil
}

// BatchItem is the outcome for one batch entry, reported at the same index
// the entry arrived at.
type BatchItem struct {
	Index  int
	LeadID string
	Result *engine.Result
	Err    error
}

// BatchOutcome summarizes a batch scoring run.
type BatchOutcome struct {
	Requested int
	Scored    int
	Failed    int
	Items     []BatchItem
}

// BatchInput is one batch entry: a stored buyer id, or an inline payload.
// The mode is carried explicitly; an inline payload is never resolved
// against storage, whatever ids it happens to contain.
type BatchInput struct {
	BuyerID string
	Raw     map[string]any
}

// ScoreBatch scores up to the handler-enforced cap of inputs concurrently.
// Buyer-id inputs are resolved against storage in one round trip and their
// results persisted; one bad item never aborts the rest.
func (s *Service) ScoreBatch(ctx context.Context, companyID uuid.UUID, inputs []BatchInput) (BatchOutcome, error) {
	outcome := BatchOutcome{
		Requested: len(inputs),
		Items:     make([]BatchItem, len(inputs)),
	}

	var ids []uuid.UUID
	for _, input := range inputs {
		if input.BuyerID == "" {
			continue
		}
		if id, err := uuid.Parse(input.BuyerID); err == nil {
			ids = append(ids, id)
		}
	}

	stored := map[uuid.UUID]repository.Lead{}
	if len(ids) > 0 {
		resolved, err := s.store.ResolveByIDs(ctx, companyID, ids)
		if err != nil {
			return BatchOutcome{}, apperr.Wrap(apperr.KindInternal, "resolve leads", err)
		}
		stored = resolved
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range inputs {
		i := i
		g.Go(func() error {
			item := s.scoreBatchItem(gctx, companyID, i, inputs[i], stored)
			mu.Lock()
			outcome.Items[i] = item
			if item.Err != nil {
				outcome.Failed++
			} else {
				outcome.Scored++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchOutcome{}, apperr.Wrap(apperr.KindInternal, "batch scoring", err)
	}
	return outcome, nil
}

// scoreBatchItem isolates one entry, including panics in the pipeline, so a
// poisoned record costs exactly one failed item.
func (s *Service) scoreBatchItem(ctx context.Context, companyID uuid.UUID, index int, input BatchInput, stored map[uuid.UUID]repository.Lead) (item BatchItem) {
	item = BatchItem{Index: index, LeadID: input.BuyerID}
	defer func() {
		if r := recover(); r != nil {
			item.Err = fmt.Errorf("scoring panicked: %v", r)
			item.Result = nil
		}
	}()

	var rec engine.LeadRecord
	persistID := uuid.Nil
	if input.BuyerID != "" {
		id, err := uuid.Parse(input.BuyerID)
		if err != nil {
			item.Err = apperr.Validation("invalid buyer id " + input.BuyerID)
			return item
		}
		lead, ok := stored[id]
		if !ok {
			item.Err = repository.ErrNotFound
			return item
		}
		rec = lead.ToRecord()
		persistID = id
	} else {
		rec = engine.Normalize(input.Raw)
		item.LeadID = rec.ID
	}

	res, err := s.engine.Score(ctx, rec, nil)
	if err != nil {
		item.Err = err
		return item
	}
	if persistID != uuid.Nil {
		if err := s.persist(ctx, companyID, persistID, res); err != nil {
			item.Err = err
			return item
		}
	}
	item.Result = &res
	return item
}

// RescoreParams selects the slice of the lead table to rescore.
type RescoreParams struct {
	CompanyID    *uuid.UUID
	OnlyUnscored bool
	Limit        int
	Offset       int
}

// RescoreFailure identifies one lead that could not be rescored.
type RescoreFailure struct {
	Index  int    `json:"index"`
	LeadID string `json:"lead_id"`
	Error  string `json:"error"`
}

// RescoreResult summarizes one rescore page.
type RescoreResult struct {
	Requested    int              `json:"requested"`
	Scored       int              `json:"scored"`
	Failed       int              `json:"failed"`
	HasMore      bool             `json:"has_more"`
	NextOffset   int              `json:"next_offset"`
	Distribution map[string]int   `json:"distribution"`
	Failures     []RescoreFailure `json:"failures,omitempty"`
}

// Rescore walks one page of stored leads and rescores them with bounded
// concurrency. Lead failures are isolated and reported by index; only
// page-level storage errors abort the run.
func (s *Service) Rescore(ctx context.Context, params RescoreParams) (RescoreResult, error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}

	// Fetch one extra row to learn whether another page exists.
	leads, err := s.store.ListPage(ctx, repository.ListParams{
		CompanyID:    params.CompanyID,
		OnlyUnscored: params.OnlyUnscored,
		Limit:        params.Limit + 1,
		Offset:       params.Offset,
	})
	if err != nil {
		return RescoreResult{}, apperr.Wrap(apperr.KindInternal, "list leads", err)
	}

	result := RescoreResult{
		Distribution: make(map[string]int),
		NextOffset:   params.Offset + params.Limit,
	}
	if len(leads) > params.Limit {
		result.HasMore = true
		leads = leads[:params.Limit]
	}
	result.Requested = len(leads)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range leads {
		i := i
		g.Go(func() error {
			lead := leads[i]
			res, err := s.rescoreOne(gctx, lead)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Failures = append(result.Failures, RescoreFailure{
					Index:  i,
					LeadID: lead.ID.String(),
					Error:  err.Error(),
				})
				return nil
			}
			result.Scored++
			result.Distribution[string(res.Classification)]++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RescoreResult{}, apperr.Wrap(apperr.KindInternal, "rescore", err)
	}

	s.log.Info("rescore page complete",
		"requested", result.Requested,
		"scored", result.Scored,
		"failed", result.Failed,
		"has_more", result.HasMore,
	)
	return result, nil
}

func (s *Service) rescoreOne(ctx context.Context, lead repository.Lead) (res engine.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scoring panicked: %v", r)
		}
	}()

	res, err = s.engine.Score(ctx, lead.ToRecord(), nil)
	if err != nil {
		return engine.Result{}, err
	}
	return res, s.persist(ctx, lead.CompanyID, lead.ID, res)
}

// StatusReport is the aggregate scoring state exposed to admins.
type StatusReport struct {
	TotalLeads     int64            `json:"total_leads"`
	ScoredLeads    int64            `json:"scored_leads"`
	UnscoredLeads  int64            `json:"unscored_leads"`
	LastScoredAt   *time.Time       `json:"last_scored_at,omitempty"`
	Classification map[string]int64 `json:"classification"`
	ModelVersion   string           `json:"model_version"`
}

func (s *Service) Status(ctx context.Context, companyID uuid.UUID) (StatusReport, error) {
	status, err := s.store.Status(ctx, companyID)
	if err != nil {
		return StatusReport{}, apperr.Wrap(apperr.KindInternal, "scoring status", err)
	}
	return StatusReport{
		TotalLeads:     status.Total,
		ScoredLeads:    status.Scored,
		UnscoredLeads:  status.Unscored,
		LastScoredAt:   status.LastScoredAt,
		Classification: status.Classification,
		ModelVersion:   engine.ModelVersion,
	}, nil
}

// persist writes scores under a bounded deadline so one slow write cannot
// stall a whole batch.
func (s *Service) persist(ctx context.Context, companyID, leadID uuid.UUID, res engine.Result) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	err := s.store.UpdateScores(ctx, companyID, leadID, repository.UpdateScoresParams{
		QualityScore:   res.Quality.Total,
		IntentScore:    res.Intent.Total,
		Confidence:     int(math.Round(res.Confidence.Total * 10)),
		Classification: string(res.Classification),
		Priority:       string(res.Priority),
		RiskFlags:      res.RiskFlags,
		ScoredAt:       res.ScoredAt,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("lead not found")
		}
		s.log.DatabaseError("update_scores", err)
		return apperr.Wrap(apperr.KindInternal, "persist scores", err)
	}
	return nil
}
