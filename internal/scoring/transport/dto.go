package transport

import (
	"math"
	"time"

	"estateflow_backend/internal/scoring/engine"
	"estateflow_backend/internal/scoring/service"
)

// ScoreRequest is the single-score payload. Every sub-object is optional;
// the normalizer defaults whatever is missing.
type ScoreRequest struct {
	ExternalID   string       `json:"external_id"`
	Source       string       `json:"source"`
	Buyer        Buyer        `json:"buyer"`
	Requirements Requirements `json:"requirements"`
	Financial    Financial    `json:"financial"`
	Context      Context      `json:"context"`
}

type Buyer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

type Requirements struct {
	BudgetMin         float64 `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax         float64 `json:"budget_max" validate:"omitempty,gte=0"`
	Bedrooms          int     `json:"bedrooms" validate:"omitempty,gte=0,lte=20"`
	PreferredLocation string  `json:"preferred_location"`
	PurchasePurpose   string  `json:"purchase_purpose"`
	Timeline          string  `json:"timeline"`
}

type Financial struct {
	PaymentMethod   string `json:"payment_method"`
	MortgageStatus  string `json:"mortgage_status"`
	ProofOfFunds    bool   `json:"proof_of_funds"`
	BrokerStatus    string `json:"broker_status"`
	SolicitorStatus string `json:"solicitor_status"`
}

type Context struct {
	Replied          bool             `json:"replied"`
	LastContactAt    *time.Time       `json:"last_contact_at"`
	ViewingBooked    bool             `json:"viewing_booked"`
	ViewingConfirmed bool             `json:"viewing_confirmed"`
	Transcript       string           `json:"transcript"`
	StopComms        bool             `json:"stop_comms"`
	CampaignID       string           `json:"campaign_id"`
	Developments     []DevelopmentDTO `json:"developments" validate:"omitempty,max=50,dive"`
}

type DevelopmentDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Bedrooms []int  `json:"bedrooms"`
}

// ToRaw flattens the request into the normalizer's input shape so the one
// alias table stays the single source of field mapping.
func (r ScoreRequest) ToRaw() map[string]any {
	raw := map[string]any{
		"external_id":        r.ExternalID,
		"source":             r.Source,
		"first_name":         r.Buyer.FirstName,
		"last_name":          r.Buyer.LastName,
		"full_name":          r.Buyer.FullName,
		"email":              r.Buyer.Email,
		"phone":              r.Buyer.Phone,
		"country":            r.Buyer.Country,
		"budget_min":         r.Requirements.BudgetMin,
		"budget_max":         r.Requirements.BudgetMax,
		"bedrooms":           r.Requirements.Bedrooms,
		"preferred_location": r.Requirements.PreferredLocation,
		"purchase_purpose":   r.Requirements.PurchasePurpose,
		"timeline":           r.Requirements.Timeline,
		"payment_method":     r.Financial.PaymentMethod,
		"mortgage_status":    r.Financial.MortgageStatus,
		"proof_of_funds":     r.Financial.ProofOfFunds,
		"broker_status":      r.Financial.BrokerStatus,
		"solicitor_status":   r.Financial.SolicitorStatus,
		"replied":            r.Context.Replied,
		"viewing_booked":     r.Context.ViewingBooked,
		"viewing_confirmed":  r.Context.ViewingConfirmed,
		"transcript":         r.Context.Transcript,
		"stop_comms":         r.Context.StopComms,
		"campaign_id":        r.Context.CampaignID,
	}
	if r.Context.LastContactAt != nil {
		raw["last_contact_at"] = *r.Context.LastContactAt
	}
	return raw
}

// DevelopmentContext converts the request's inventory context for the engine.
func (r ScoreRequest) DevelopmentContext() []engine.Development {
	if len(r.Context.Developments) == 0 {
		return nil
	}
	devs := make([]engine.Development, len(r.Context.Developments))
	for i, d := range r.Context.Developments {
		devs[i] = engine.Development{ID: d.ID, Name: d.Name, Location: d.Location, Bedrooms: d.Bedrooms}
	}
	return devs
}

// ScoreResponse mirrors one scoring result. Confidence stays on the 0-10
// scale here; only stored and batch display values are multiplied by ten.
type ScoreResponse struct {
	ExternalID          string          `json:"external_id,omitempty"`
	QualityScore        int             `json:"quality_score"`
	QualityBreakdown    []engine.Factor `json:"quality_breakdown"`
	IntentScore         int             `json:"intent_score"`
	IntentBreakdown     []engine.Factor `json:"intent_breakdown"`
	ConfidenceScore     float64         `json:"confidence_score"`
	ConfidenceBreakdown []engine.Factor `json:"confidence_breakdown"`
	Classification      string          `json:"classification"`
	Priority            string          `json:"call_priority"`
	ResponseTime        string          `json:"response_time"`
	RiskFlags           []string        `json:"risk_flags"`
	IsFake              bool            `json:"is_fake_lead"`
	FakeFlags           []string        `json:"fake_flags,omitempty"`
	Is28DayBuyer        bool            `json:"is_28_day_buyer"`
	ModelVersion        string          `json:"model_version"`
	ScoredAt            time.Time       `json:"scored_at"`
}

func NewScoreResponse(externalID string, res engine.Result) ScoreResponse {
	return ScoreResponse{
		ExternalID:          externalID,
		QualityScore:        res.Quality.Total,
		QualityBreakdown:    res.Quality.Factors,
		IntentScore:         res.Intent.Total,
		IntentBreakdown:     res.Intent.Factors,
		ConfidenceScore:     res.Confidence.Total,
		ConfidenceBreakdown: res.Confidence.Factors,
		Classification:      string(res.Classification),
		Priority:            string(res.Priority),
		ResponseTime:        res.Priority.ResponseTime(),
		RiskFlags:           res.RiskFlags,
		IsFake:              res.IsFake,
		FakeFlags:           res.FakeFlags,
		Is28DayBuyer:        res.Is28DayBuyer,
		ModelVersion:        res.ModelVersion,
		ScoredAt:            res.ScoredAt,
	}
}

// BatchScoreRequest carries either stored buyer IDs or inline lead payloads.
type BatchScoreRequest struct {
	BuyerIDs []string         `json:"buyer_ids" validate:"omitempty,dive,uuid"`
	Leads    []map[string]any `json:"leads"`
}

// Items merges both input modes, tagging each entry with where it came
// from. Buyer IDs are resolved tenant-scoped by the service; inline leads
// are scored as supplied, without any store lookup.
func (r BatchScoreRequest) Items() []service.BatchInput {
	items := make([]service.BatchInput, 0, len(r.BuyerIDs)+len(r.Leads))
	for _, id := range r.BuyerIDs {
		items = append(items, service.BatchInput{BuyerID: id})
	}
	for _, raw := range r.Leads {
		items = append(items, service.BatchInput{Raw: raw})
	}
	return items
}

type BatchResultItem struct {
	Index           int      `json:"index"`
	BuyerID         string   `json:"buyer_id,omitempty"`
	QualityScore    int      `json:"quality_score"`
	IntentScore     int      `json:"intent_score"`
	ConfidenceScore int      `json:"confidence_score"`
	Classification  string   `json:"classification"`
	CallPriority    string   `json:"call_priority"`
	Is28DayBuyer    bool     `json:"is_28_day_buyer"`
	IsFakeLead      bool     `json:"is_fake_lead"`
	RiskFlags       []string `json:"risk_flags"`
}

type BatchErrorItem struct {
	Index   int    `json:"index"`
	BuyerID string `json:"buyer_id,omitempty"`
	Error   string `json:"error"`
}

type BatchScoreResponse struct {
	Total   int               `json:"total"`
	Scored  int               `json:"scored"`
	Failed  int               `json:"failed"`
	Results []BatchResultItem `json:"results"`
	Errors  []BatchErrorItem  `json:"errors,omitempty"`
}

func NewBatchScoreResponse(outcome service.BatchOutcome) BatchScoreResponse {
	resp := BatchScoreResponse{
		Total:   outcome.Requested,
		Scored:  outcome.Scored,
		Failed:  outcome.Failed,
		Results: make([]BatchResultItem, 0, outcome.Scored),
	}
	for _, item := range outcome.Items {
		if item.Err != nil {
			resp.Errors = append(resp.Errors, BatchErrorItem{
				Index:   item.Index,
				BuyerID: item.LeadID,
				Error:   item.Err.Error(),
			})
			continue
		}
		res := item.Result
		resp.Results = append(resp.Results, BatchResultItem{
			Index:           item.Index,
			BuyerID:         item.LeadID,
			QualityScore:    res.Quality.Total,
			IntentScore:     res.Intent.Total,
			ConfidenceScore: int(math.Round(res.Confidence.Total * 10)),
			Classification:  string(res.Classification),
			CallPriority:    string(res.Priority),
			Is28DayBuyer:    res.Is28DayBuyer,
			IsFakeLead:      res.IsFake,
			RiskFlags:       res.RiskFlags,
		})
	}
	return resp
}

// RescoreRequest drives the admin batch rescore.
type RescoreRequest struct {
	Limit    int      `json:"limit" validate:"omitempty,gte=1,lte=1000"`
	Offset   int      `json:"offset" validate:"omitempty,gte=0"`
	Force    bool     `json:"force"`
	BuyerIDs []string `json:"buyer_ids" validate:"omitempty,max=1000,dive,uuid"`
	Async    bool     `json:"async"`
}

// StatusResponse is the admin scoring status payload.
type StatusResponse struct {
	Total                      int64            `json:"total"`
	Scored                     int64            `json:"scored"`
	Unscored                   int64            `json:"unscored"`
	LastScoredAt               *time.Time       `json:"last_scored_at,omitempty"`
	ClassificationDistribution map[string]int64 `json:"classificationDistribution"`
	ModelVersion               string           `json:"model_version"`
}

func NewStatusResponse(report service.StatusReport) StatusResponse {
	return StatusResponse{
		Total:                      report.TotalLeads,
		Scored:                     report.ScoredLeads,
		Unscored:                   report.UnscoredLeads,
		LastScoredAt:               report.LastScoredAt,
		ClassificationDistribution: report.Classification,
		ModelVersion:               report.ModelVersion,
	}
}
