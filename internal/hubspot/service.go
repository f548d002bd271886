package hubspot

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estateflow_backend/internal/scoring/engine"
)

// Repository resolves per-company HubSpot credentials.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetToken returns the company's HubSpot token, or "" when none is set.
func (r *Repository) GetToken(ctx context.Context, companyID uuid.UUID) (string, error) {
	var token *string
	err := r.pool.QueryRow(ctx, `
		SELECT hubspot_token FROM companies WHERE id = $1
	`, companyID).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

// TokenStore is the credential lookup the service needs.
type TokenStore interface {
	GetToken(ctx context.Context, companyID uuid.UUID) (string, error)
}

// Pusher is the outbound client surface, narrowed for tests.
type Pusher interface {
	PushContact(ctx context.Context, token string, rec engine.LeadRecord, res engine.Result) PushResult
}

// Service resolves the tenant credential and delegates to the client.
type Service struct {
	tokens TokenStore
	client Pusher
}

func NewService(tokens TokenStore, client Pusher) *Service {
	return &Service{tokens: tokens, client: client}
}

// PushLead pushes a scored lead for the company. Never returns an error;
// lookup failures and push failures are both folded into the result.
func (s *Service) PushLead(ctx context.Context, companyID uuid.UUID, rec engine.LeadRecord, res engine.Result) PushResult {
	token, err := s.tokens.GetToken(ctx, companyID)
	if err != nil {
		return PushResult{Pushed: false, Error: err.Error()}
	}
	if token == "" {
		return NotConfigured()
	}
	return s.client.PushContact(ctx, token, rec, res)
}
