package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estateflow_backend/platform/httpkit"
	"estateflow_backend/platform/logger"
)

const (
	ctxAPIKey = "gateway.apiKey"

	remainingHeader = "X-RateLimit-Remaining"

	usageWriteTimeout = 3 * time.Second
)

// KeyStore is the persistence surface the middleware needs.
type KeyStore interface {
	GetByHash(ctx context.Context, keyHash string) (APIKey, error)
	TouchLastUsed(ctx context.Context, keyID uuid.UUID) error
	InsertUsage(ctx context.Context, entry UsageEntry) error
}

// Middleware carries the gateway request chain: usage logging, bearer key
// auth, permission checks and per-key rate limiting.
type Middleware struct {
	keys    KeyStore
	limiter *RateLimiter
	log     *logger.Logger
}

func NewMiddleware(keys KeyStore, limiter *RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{keys: keys, limiter: limiter, log: log}
}

// Chain returns the full gateway middleware stack for an endpoint requiring
// the given permission. UsageLog sits outermost so rejected calls are still
// audited whenever the key could be resolved.
func (m *Middleware) Chain(permission string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.UsageLog(),
		m.Authenticate(),
		m.RequirePermission(permission),
		m.RateLimit(),
	}
}

// Authenticate resolves the bearer token to an active API key. Missing,
// malformed, unknown and revoked keys are indistinguishable to the caller.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerKey(c.GetHeader("Authorization"))
		if !ok {
			m.log.AuthEvent("api_key_auth", "", false, "missing bearer token")
			m.reject(c, http.StatusUnauthorized, "missing or invalid API key")
			return
		}

		key, err := m.keys.GetByHash(c.Request.Context(), HashKey(token))
		if err != nil {
			prefix := ""
			if len(token) >= 12 {
				prefix = token[:12]
			}
			m.log.AuthEvent("api_key_auth", prefix, false, "unknown or revoked key")
			m.reject(c, http.StatusUnauthorized, "missing or invalid API key")
			return
		}

		c.Set(ctxAPIKey, key)
		c.Next()
	}
}

// RequirePermission checks the authenticated key's permission flags.
func (m *Middleware) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := APIKeyFrom(c)
		if !ok {
			m.reject(c, http.StatusUnauthorized, "missing or invalid API key")
			return
		}
		if !key.HasPermission(permission) {
			m.log.AuthEvent("api_key_permission", key.KeyPrefix, false, "missing "+permission)
			m.rejectWithQuota(c, key, http.StatusForbidden, "API key lacks the "+permission+" permission")
			return
		}
		c.Next()
	}
}

// RateLimit enforces the per-key sliding window and stamps the remaining
// quota on every response it sees.
func (m *Middleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := APIKeyFrom(c)
		if !ok {
			m.reject(c, http.StatusUnauthorized, "missing or invalid API key")
			return
		}

		decision, err := m.limiter.Allow(c.Request.Context(), key.ID.String())
		if err != nil {
			// Redis being down should not take the API down with it.
			m.log.Error("rate limit check failed", "error", err, "key_prefix", key.KeyPrefix)
			c.Header(remainingHeader, strconv.Itoa(m.limiter.Limit()))
			c.Next()
			return
		}

		c.Header(remainingHeader, strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			m.log.RateLimitExceeded(key.KeyPrefix, c.FullPath())
			httpkit.Error(c, http.StatusTooManyRequests, "rate limit exceeded", gin.H{"remaining": 0})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UsageLog appends one audit row per call attempt once a key id is known,
// rejections included. Writes happen after the response on a detached
// context so a slow audit insert never delays the caller.
func (m *Middleware) UsageLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		key, ok := APIKeyFrom(c)
		if !ok {
			return
		}
		entry := UsageEntry{
			APIKeyID:       key.ID,
			Endpoint:       c.FullPath(),
			Method:         c.Request.Method,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(time.Since(start).Milliseconds()),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), usageWriteTimeout)
			defer cancel()
			if err := m.keys.InsertUsage(ctx, entry); err != nil {
				m.log.Error("usage log write failed", "error", err, "key_prefix", key.KeyPrefix)
			}
			if err := m.keys.TouchLastUsed(ctx, key.ID); err != nil {
				m.log.Error("last_used_at touch failed", "error", err, "key_prefix", key.KeyPrefix)
			}
		}()
	}
}

// reject aborts without a quota header: before a key is resolved there is
// no quota to report.
func (m *Middleware) reject(c *gin.Context, status int, message string) {
	httpkit.Error(c, status, message, nil)
	c.Abort()
}

// rejectWithQuota aborts a key-resolved request, reporting the key's actual
// remaining budget without consuming any of it.
func (m *Middleware) rejectWithQuota(c *gin.Context, key APIKey, status int, message string) {
	remaining, err := m.limiter.Peek(c.Request.Context(), key.ID.String())
	if err != nil {
		m.log.Error("rate limit peek failed", "error", err, "key_prefix", key.KeyPrefix)
		remaining = m.limiter.Limit()
	}
	c.Header(remainingHeader, strconv.Itoa(remaining))
	httpkit.Error(c, status, message, nil)
	c.Abort()
}

// APIKeyFrom returns the authenticated key for the request, if any.
func APIKeyFrom(c *gin.Context) (APIKey, bool) {
	value, ok := c.Get(ctxAPIKey)
	if !ok {
		return APIKey{}, false
	}
	key, ok := value.(APIKey)
	return key, ok
}

// CompanyIDFrom returns the tenant the authenticated key belongs to.
func CompanyIDFrom(c *gin.Context) (uuid.UUID, bool) {
	key, ok := APIKeyFrom(c)
	if !ok {
		return uuid.Nil, false
	}
	return key.CompanyID, true
}

func bearerKey(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if !strings.HasPrefix(token, "lsk_") {
		return "", false
	}
	return token, true
}
