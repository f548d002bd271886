// Package gateway implements API-key authentication, per-key rate limiting
// and usage logging for the external scoring API.
package gateway

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAPIKeyNotFound = errors.New("api key not found")

// Permission flags an API key can carry.
const (
	PermScoreSingle = "score_single"
	PermScoreBatch  = "score_batch"
	PermWebhook     = "webhook"
)

// APIKey is the stored form of a gateway credential. The plaintext secret is
// returned exactly once at creation and never stored.
type APIKey struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions []string
	IsActive    bool
	CreatedAt   time.Time
	LastUsedAt  *time.Time
}

// HasPermission reports whether the key carries the named permission flag.
func (k APIKey) HasPermission(perm string) bool {
	for _, p := range k.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// GenerateAPIKey creates a new random API key and returns the plaintext key
// with its hash. The plaintext is shown once; only the hash is stored.
func GenerateAPIKey() (plaintext string, hash string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = "lsk_" + hex.EncodeToString(bytes)
	hash = HashKey(plaintext)
	prefix = plaintext[:12] // "lsk_" + 8 hex chars
	return plaintext, hash, prefix, nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, companyID uuid.UUID, name, keyHash, keyPrefix string, permissions []string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		INSERT INTO api_keys (company_id, name, key_hash, key_prefix, permissions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, company_id, name, key_hash, key_prefix, permissions, is_active, created_at, last_used_at
	`, companyID, name, keyHash, keyPrefix, permissions).Scan(
		&key.ID, &key.CompanyID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.Permissions, &key.IsActive, &key.CreatedAt, &key.LastUsedAt,
	)
	return key, err
}

// GetByHash retrieves an active key by its hash. Revoked keys are invisible
// here, which is what makes revocation take effect immediately.
func (r *Repository) GetByHash(ctx context.Context, keyHash string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, name, key_hash, key_prefix, permissions, is_active, created_at, last_used_at
		FROM api_keys
		WHERE key_hash = $1 AND is_active = true
	`, keyHash).Scan(
		&key.ID, &key.CompanyID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.Permissions, &key.IsActive, &key.CreatedAt, &key.LastUsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, err
}

// ListByCompany returns all keys for a company, revoked ones included.
func (r *Repository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, name, key_hash, key_prefix, permissions, is_active, created_at, last_used_at
		FROM api_keys
		WHERE company_id = $1
		ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		var key APIKey
		if err := rows.Scan(
			&key.ID, &key.CompanyID, &key.Name, &key.KeyHash, &key.KeyPrefix,
			&key.Permissions, &key.IsActive, &key.CreatedAt, &key.LastUsedAt,
		); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Revoke deactivates a key. Keys are never hard-deleted; the row stays for
// the usage log's foreign key and for audit.
func (r *Repository) Revoke(ctx context.Context, keyID, companyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE api_keys SET is_active = false
		WHERE id = $1 AND company_id = $2
	`, keyID, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// TouchLastUsed updates last_used_at, best effort.
func (r *Repository) TouchLastUsed(ctx context.Context, keyID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE api_keys SET last_used_at = now() WHERE id = $1
	`, keyID)
	return err
}

// UsageEntry is one row of the append-only call audit.
type UsageEntry struct {
	APIKeyID       uuid.UUID
	Endpoint       string
	Method         string
	StatusCode     int
	ResponseTimeMs int
}

func (r *Repository) InsertUsage(ctx context.Context, entry UsageEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_usage_log (api_key_id, endpoint, http_method, status_code, response_time_ms)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.APIKeyID, entry.Endpoint, entry.Method, entry.StatusCode, entry.ResponseTimeMs)
	return err
}
