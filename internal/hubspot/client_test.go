package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"estateflow_backend/internal/scoring/engine"
	"estateflow_backend/platform/logger"
)

type testHubSpotConfig struct {
	baseURL string
}

func (c testHubSpotConfig) GetHubSpotBaseURL() string        { return c.baseURL }
func (c testHubSpotConfig) GetHubSpotTimeout() time.Duration { return 2 * time.Second }

func sampleResult() engine.Result {
	return engine.Result{
		Quality:        engine.ScoreBreakdown{Total: 71},
		Intent:         engine.ScoreBreakdown{Total: 77},
		Classification: engine.ClassHotLead,
		Priority:       engine.PriorityP1,
	}
}

func TestPushContactSuccess(t *testing.T) {
	var gotAuth string
	var gotProps map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Properties map[string]string `json:"properties"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotProps = body.Properties
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"hs-123"}`))
	}))
	defer server.Close()

	client := NewClient(testHubSpotConfig{baseURL: server.URL}, logger.New("test"))
	rec := engine.LeadRecord{FirstName: "Jane", LastName: "Doe", Email: "jane@gmail.com"}

	result := client.PushContact(context.Background(), "token-1", rec, sampleResult())
	if !result.Pushed || result.HubSpotID != "hs-123" {
		t.Fatalf("result = %+v", result)
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotProps["lead_classification"] != "hot_lead" || gotProps["lead_quality_score"] != "71" {
		t.Fatalf("properties = %v", gotProps)
	}
}

func TestPushContactRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testHubSpotConfig{baseURL: server.URL}, logger.New("test"))
	result := client.PushContact(context.Background(), "bad-token", engine.LeadRecord{}, sampleResult())
	if result.Pushed {
		t.Fatal("rejected push reported as pushed")
	}
	if result.Error == "" {
		t.Fatal("rejected push carries no error detail")
	}
}

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) GetToken(context.Context, uuid.UUID) (string, error) {
	return f.token, f.err
}

type fakePusher struct {
	result PushResult
	calls  int
}

func (f *fakePusher) PushContact(context.Context, string, engine.LeadRecord, engine.Result) PushResult {
	f.calls++
	return f.result
}

func TestPushLeadWithoutToken(t *testing.T) {
	pusher := &fakePusher{}
	svc := NewService(fakeTokens{token: ""}, pusher)

	result := svc.PushLead(context.Background(), uuid.New(), engine.LeadRecord{}, sampleResult())
	if result.Pushed {
		t.Fatal("unconfigured tenant reported as pushed")
	}
	if result.Reason == "" {
		t.Fatal("unconfigured tenant carries no reason")
	}
	if pusher.calls != 0 {
		t.Fatal("client was called without a token")
	}
}

func TestPushLeadDelegates(t *testing.T) {
	pusher := &fakePusher{result: PushResult{Pushed: true, HubSpotID: "hs-9"}}
	svc := NewService(fakeTokens{token: "tok"}, pusher)

	result := svc.PushLead(context.Background(), uuid.New(), engine.LeadRecord{}, sampleResult())
	if !result.Pushed || result.HubSpotID != "hs-9" {
		t.Fatalf("result = %+v", result)
	}
}
