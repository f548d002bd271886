package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estateflow_backend/internal/scoring/engine"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead mirrors the leads table. Nullable columns use pointers.
type Lead struct {
	ID        uuid.UUID
	CompanyID uuid.UUID

	FirstName *string
	LastName  *string
	FullName  *string
	Email     *string
	Phone     *string
	Country   *string

	BudgetMin         *float64
	BudgetMax         *float64
	Bedrooms          *int
	PreferredLocation *string
	PurchasePurpose   *string
	Timeline          *string

	PaymentMethod   *string
	MortgageStatus  *string
	ProofOfFunds    bool
	BrokerStatus    string
	SolicitorStatus string

	Replied          bool
	LastContactAt    *time.Time
	ViewingBooked    bool
	ViewingConfirmed bool
	Transcript       *string
	StopComms        bool

	Source          *string
	CampaignID      *string
	DevelopmentID   *string
	DevelopmentName *string

	Status string

	QualityScore     *int
	IntentScore      *int
	AIQualityScore   *int
	AIIntentScore    *int
	AIConfidence     *int
	AIClassification *string
	AIPriority       *string
	AIRiskFlags      []string
	AIScoredAt       *time.Time

	CreatedAt       time.Time
	UpdatedAt       time.Time
	StatusChangedAt time.Time
}

// ToRecord converts a stored lead into the engine's canonical record.
func (l Lead) ToRecord() engine.LeadRecord {
	rec := engine.LeadRecord{
		ID:               l.ID.String(),
		FirstName:        deref(l.FirstName),
		LastName:         deref(l.LastName),
		FullName:         deref(l.FullName),
		Email:            deref(l.Email),
		Phone:            deref(l.Phone),
		Country:          deref(l.Country),
		Bedrooms:         derefInt(l.Bedrooms),
		ProofOfFunds:     l.ProofOfFunds,
		BrokerStatus:     engine.ConnectionStatus(l.BrokerStatus),
		SolicitorStatus:  engine.ConnectionStatus(l.SolicitorStatus),
		Replied:          l.Replied,
		LastContactAt:    l.LastContactAt,
		ViewingBooked:    l.ViewingBooked,
		ViewingConfirmed: l.ViewingConfirmed,
		Transcript:       deref(l.Transcript),
		StopComms:        l.StopComms,
		Source:           deref(l.Source),
		CampaignID:       deref(l.CampaignID),
		DevelopmentID:    deref(l.DevelopmentID),
		DevelopmentName:  deref(l.DevelopmentName),
		Status:           engine.Stage(l.Status),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
		StatusChangedAt:  l.StatusChangedAt,
	}
	if l.BudgetMin != nil {
		rec.BudgetMin = *l.BudgetMin
	}
	if l.BudgetMax != nil {
		rec.BudgetMax = *l.BudgetMax
	}
	rec.PreferredLocation = deref(l.PreferredLocation)
	rec.PurchasePurpose = deref(l.PurchasePurpose)
	rec.Timeline = deref(l.Timeline)
	rec.PaymentMethod = deref(l.PaymentMethod)
	rec.MortgageStatus = deref(l.MortgageStatus)
	if !engine.IsValidStage(rec.Status) {
		rec.Status = engine.StageNew
	}
	return rec
}

const leadColumns = `
	id, company_id, first_name, last_name, full_name, email, phone, country,
	budget_min, budget_max, bedrooms, preferred_location, purchase_purpose, timeline,
	payment_method, mortgage_status, proof_of_funds, broker_status, solicitor_status,
	replied, last_contact_at, viewing_booked, viewing_confirmed, transcript, stop_comms,
	source, campaign_id, development_id, development_name, status,
	quality_score, intent_score, ai_quality_score, ai_intent_score, ai_confidence,
	ai_classification, ai_priority, ai_risk_flags, ai_scored_at,
	created_at, updated_at, status_changed_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.FirstName, &l.LastName, &l.FullName, &l.Email, &l.Phone, &l.Country,
		&l.BudgetMin, &l.BudgetMax, &l.Bedrooms, &l.PreferredLocation, &l.PurchasePurpose, &l.Timeline,
		&l.PaymentMethod, &l.MortgageStatus, &l.ProofOfFunds, &l.BrokerStatus, &l.SolicitorStatus,
		&l.Replied, &l.LastContactAt, &l.ViewingBooked, &l.ViewingConfirmed, &l.Transcript, &l.StopComms,
		&l.Source, &l.CampaignID, &l.DevelopmentID, &l.DevelopmentName, &l.Status,
		&l.QualityScore, &l.IntentScore, &l.AIQualityScore, &l.AIIntentScore, &l.AIConfidence,
		&l.AIClassification, &l.AIPriority, &l.AIRiskFlags, &l.AIScoredAt,
		&l.CreatedAt, &l.UpdatedAt, &l.StatusChangedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

func (r *Repository) GetByID(ctx context.Context, companyID, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE company_id = $1 AND id = $2
	`, companyID, id)
	return scanLead(row)
}

// ResolveByIDs fetches leads by ID within one company. The result map only
// contains IDs that exist; callers decide how to treat missing ones.
func (r *Repository) ResolveByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE company_id = $1 AND id = ANY($2)
	`, companyID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[uuid.UUID]Lead, len(ids))
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		found[l.ID] = l
	}
	return found, rows.Err()
}

type ListParams struct {
	CompanyID    *uuid.UUID
	OnlyUnscored bool
	Limit        int
	Offset       int
}

// ListPage returns one stable page ordered by creation time then ID, so
// repeated batch runs walk the table in the same order.
func (r *Repository) ListPage(ctx context.Context, params ListParams) ([]Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE ($1::uuid IS NULL OR company_id = $1)
		  AND (NOT $2 OR ai_scored_at IS NULL)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, params.CompanyID, params.OnlyUnscored, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0, params.Limit)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

type CreateParams struct {
	CompanyID uuid.UUID
	Record    engine.LeadRecord
}

// Create inserts a lead from a normalized record, typically off the inbound
// webhook. Scores are written separately by UpdateScores.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Lead, error) {
	rec := params.Record
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			company_id, first_name, last_name, full_name, email, phone, country,
			budget_min, budget_max, bedrooms, preferred_location, purchase_purpose, timeline,
			payment_method, mortgage_status, proof_of_funds, broker_status, solicitor_status,
			replied, last_contact_at, viewing_booked, viewing_confirmed, transcript, stop_comms,
			source, campaign_id, development_id, development_name, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24,
			$25, $26, $27, $28, $29
		)
		RETURNING `+leadColumns+`
	`,
		params.CompanyID,
		nullable(rec.FirstName), nullable(rec.LastName), nullable(rec.FullName),
		nullable(rec.Email), nullable(rec.Phone), nullable(rec.Country),
		nullFloat(rec.BudgetMin), nullFloat(rec.BudgetMax), nullInt(rec.Bedrooms),
		nullable(rec.PreferredLocation), nullable(rec.PurchasePurpose), nullable(rec.Timeline),
		nullable(rec.PaymentMethod), nullable(rec.MortgageStatus), rec.ProofOfFunds,
		string(rec.BrokerStatus), string(rec.SolicitorStatus),
		rec.Replied, rec.LastContactAt, rec.ViewingBooked, rec.ViewingConfirmed,
		nullable(rec.Transcript), rec.StopComms,
		nullable(rec.Source), nullable(rec.CampaignID), nullable(rec.DevelopmentID), nullable(rec.DevelopmentName),
		string(rec.Status),
	)
	return scanLead(row)
}

type UpdateScoresParams struct {
	QualityScore   int
	IntentScore    int
	Confidence     int // 0-100, engine confidence times ten
	Classification string
	Priority       string
	RiskFlags      []string
	ScoredAt       time.Time
}

// UpdateScores merge-writes the score columns and their legacy mirrors,
// leaving every other column untouched.
func (r *Repository) UpdateScores(ctx context.Context, companyID, id uuid.UUID, params UpdateScoresParams) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			ai_quality_score = $3,
			ai_intent_score = $4,
			ai_confidence = $5,
			ai_classification = $6,
			ai_priority = $7,
			ai_risk_flags = $8,
			ai_scored_at = $9,
			quality_score = $3,
			intent_score = $4,
			updated_at = now()
		WHERE company_id = $1 AND id = $2
	`, companyID, id,
		params.QualityScore, params.IntentScore, params.Confidence,
		params.Classification, params.Priority, params.RiskFlags, params.ScoredAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Status holds the aggregate scoring state for a company.
type Status struct {
	Total          int64
	Scored         int64
	Unscored       int64
	LastScoredAt   *time.Time
	Classification map[string]int64
}

func (r *Repository) Status(ctx context.Context, companyID uuid.UUID) (Status, error) {
	status := Status{Classification: make(map[string]int64)}

	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE ai_scored_at IS NOT NULL),
		       count(*) FILTER (WHERE ai_scored_at IS NULL),
		       max(ai_scored_at)
		FROM leads
		WHERE company_id = $1
	`, companyID).Scan(&status.Total, &status.Scored, &status.Unscored, &status.LastScoredAt)
	if err != nil {
		return Status{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ai_classification, count(*)
		FROM leads
		WHERE company_id = $1 AND ai_classification IS NOT NULL
		GROUP BY ai_classification
	`, companyID)
	if err != nil {
		return Status{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var class string
		var count int64
		if err := rows.Scan(&class, &count); err != nil {
			return Status{}, err
		}
		status.Classification[class] = count
	}
	return status, rows.Err()
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nullFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func nullInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
