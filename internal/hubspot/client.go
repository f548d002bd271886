// Package hubspot pushes scored leads to HubSpot on a best-effort basis.
// A failed push is reported to the caller as data, never as an error.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"estateflow_backend/internal/scoring/engine"
	"estateflow_backend/platform/config"
	"estateflow_backend/platform/logger"
)

// PushResult is what the caller folds into its own response.
type PushResult struct {
	Pushed    bool   `json:"pushed"`
	HubSpotID string `json:"hubspot_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type Client struct {
	http    *http.Client
	baseURL string
	log     *logger.Logger
}

func NewClient(cfg config.HubSpotConfig, log *logger.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.GetHubSpotTimeout()},
		baseURL: cfg.GetHubSpotBaseURL(),
		log:     log,
	}
}

type contactRequest struct {
	Properties map[string]string `json:"properties"`
}

type contactResponse struct {
	ID string `json:"id"`
}

// PushContact creates a HubSpot contact carrying the lead's identity and its
// scores. Every failure mode collapses into a PushResult; the only way this
// is surfaced is as a sub-field of the caller's response.
func (c *Client) PushContact(ctx context.Context, token string, rec engine.LeadRecord, res engine.Result) PushResult {
	payload := contactRequest{Properties: map[string]string{
		"email":               rec.Email,
		"firstname":           rec.FirstName,
		"lastname":            rec.LastName,
		"phone":               rec.Phone,
		"lead_quality_score":  strconv.Itoa(res.Quality.Total),
		"lead_intent_score":   strconv.Itoa(res.Intent.Total),
		"lead_classification": string(res.Classification),
		"lead_priority":       string(res.Priority),
	}}
	if rec.FirstName == "" && rec.FullName != "" {
		payload.Properties["firstname"] = rec.FullName
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crm/v3/objects/contacts", bytes.NewReader(body))
	if err != nil {
		return failed(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("hubspot push failed", "error", err)
		return failed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("hubspot push rejected", "status", resp.StatusCode, "body", string(detail))
		return failed(fmt.Errorf("hubspot returned status %d", resp.StatusCode))
	}

	var contact contactResponse
	if err := json.NewDecoder(resp.Body).Decode(&contact); err != nil {
		return failed(err)
	}
	return PushResult{Pushed: true, HubSpotID: contact.ID}
}

func failed(err error) PushResult {
	return PushResult{Pushed: false, Error: err.Error()}
}

// NotConfigured is the result for tenants without a HubSpot token.
func NotConfigured() PushResult {
	return PushResult{Pushed: false, Reason: "hubspot not configured for this company"}
}
