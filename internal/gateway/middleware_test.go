package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"estateflow_backend/platform/logger"
)

type fakeKeyStore struct {
	mu      sync.Mutex
	keys    map[string]APIKey // by hash, active only
	usage   []UsageEntry
	touched []uuid.UUID
}

func (f *fakeKeyStore) GetByHash(_ context.Context, keyHash string) (APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.keys[keyHash]
	if !ok {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, nil
}

func (f *fakeKeyStore) TouchLastUsed(_ context.Context, keyID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, keyID)
	return nil
}

func (f *fakeKeyStore) InsertUsage(_ context.Context, entry UsageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage = append(f.usage, entry)
	return nil
}

func (f *fakeKeyStore) usageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.usage)
}

type gatewayFixture struct {
	router    *gin.Engine
	store     *fakeKeyStore
	plaintext string
	key       APIKey
}

func newGatewayFixture(t *testing.T, permissions []string) *gatewayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	key := APIKey{
		ID:          uuid.New(),
		CompanyID:   uuid.New(),
		Name:        "test key",
		KeyHash:     hash,
		KeyPrefix:   prefix,
		Permissions: permissions,
		IsActive:    true,
	}
	store := &fakeKeyStore{keys: map[string]APIKey{hash: key}}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRateLimiter(client, testRateConfig{})

	mw := NewMiddleware(store, limiter, logger.New("test"))
	router := gin.New()
	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
	router.POST("/score", append(mw.Chain(PermScoreSingle), ok)...)
	router.POST("/webhook", append(mw.Chain(PermWebhook), ok)...)

	return &gatewayFixture{router: router, store: store, plaintext: plaintext, key: key}
}

func (fx *gatewayFixture) call(auth string) *httptest.ResponseRecorder {
	return fx.callPath(auth, "/score")
}

func (fx *gatewayFixture) callPath(auth, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func TestGatewayMissingKey(t *testing.T) {
	fx := newGatewayFixture(t, []string{PermScoreSingle})

	rec := fx.call("")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	// No key was resolved, so there is no quota to report.
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "" {
		t.Fatalf("remaining header = %q, want absent", got)
	}
}

func TestGatewayRevokedKey(t *testing.T) {
	fx := newGatewayFixture(t, []string{PermScoreSingle})

	// Revocation removes the key from active lookups; the hash still matches
	// a stored row but must be rejected.
	fx.store.mu.Lock()
	fx.store.keys = map[string]APIKey{}
	fx.store.mu.Unlock()

	rec := fx.call("Bearer " + fx.plaintext)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGatewayWrongScheme(t *testing.T) {
	fx := newGatewayFixture(t, []string{PermScoreSingle})

	rec := fx.call("Basic " + fx.plaintext)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGatewayMissingPermission(t *testing.T) {
	fx := newGatewayFixture(t, []string{PermWebhook})

	rec := fx.call("Bearer " + fx.plaintext)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestGatewayPermissionRejectReportsActualRemaining(t *testing.T) {
	fx := newGatewayFixture(t, []string{PermScoreSingle})

	// Consume two of the five requests on the permitted route.
	for i := 0; i < 2; i++ {
		if rec := fx.call("Bearer " + fx.plaintext); rec.Code != http.StatusOK {
			t.Fatalf("setup call %d: status = %d", i, rec.Code)
		}
	}

	rec := fx.callPath("Bearer "+fx.plaintext, "/webhook")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "3" {
		t.Fatalf("remaining header = %q, want 3", got)
	}

	// The rejection reported the quota without consuming it.
	rec = fx.call("Bearer " + fx.plaintext)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("remaining header = %q, want 2", got)
	}
}

func TestGatewayHappyPathCarriesRemaining(t *testing.T) {
	fx := newGatewayFixture(t, []string{PermScoreSingle})

	rec := fx.call("Bearer " + fx.plaintext)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Fatalf("remaining header = %q, want 4", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestGatewayRateLimitExceeded(t *testing.T) {
	fx := newGatewayFixture(t, []string{PermScoreSingle})

	var rec *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		rec = fx.call("Bearer " + fx.plaintext)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("remaining header = %q, want 0", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestGatewayLogsUsageOnRejection(t *testing.T) {
	fx := newGatewayFixture(t, []string{PermWebhook})

	rec := fx.call("Bearer " + fx.plaintext)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	// The audit write is detached from the request; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for fx.store.usageCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fx.store.usageCount() != 1 {
		t.Fatal("expected one usage entry for the rejected call")
	}

	fx.store.mu.Lock()
	entry := fx.store.usage[0]
	fx.store.mu.Unlock()
	if entry.APIKeyID != fx.key.ID || entry.StatusCode != http.StatusForbidden {
		t.Fatalf("usage entry = %+v", entry)
	}
}

func TestGenerateAPIKey(t *testing.T) {
	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if !strings.HasPrefix(plaintext, "lsk_") || len(plaintext) != 4+64 {
		t.Fatalf("plaintext = %q", plaintext)
	}
	if prefix != plaintext[:12] {
		t.Fatalf("prefix = %q", prefix)
	}
	if HashKey(plaintext) != hash {
		t.Fatal("hash does not match plaintext")
	}

	second, _, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if second == plaintext {
		t.Fatal("two generated keys were identical")
	}
}
