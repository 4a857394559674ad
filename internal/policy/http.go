package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPGate queries a remote policy service over HTTP with a bounded timeout.
type HTTPGate struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGate builds a gate client. timeout bounds the whole request,
// including connection setup; a timeout surfaces as an error so callers fail
// closed.
func NewHTTPGate(baseURL string, timeout time.Duration) *HTTPGate {
	return &HTTPGate{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type checkRequest struct {
	UserID       string `json:"user_id"`
	Action       string `json:"action"`
	TargetRegion string `json:"target_region"`
}

type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Check submits the proposed action for a fresh decision.
func (g *HTTPGate) Check(ctx context.Context, userID, action, targetRegion string) (Decision, error) {
	payload, err := json.Marshal(checkRequest{UserID: userID, Action: action, TargetRegion: targetRegion})
	if err != nil {
		return Decision{}, fmt.Errorf("encode compliance request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/compliance/check", bytes.NewReader(payload))
	if err != nil {
		return Decision{}, fmt.Errorf("build compliance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Decision{}, fmt.Errorf("compliance check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Decision{}, fmt.Errorf("compliance check: unexpected status %d", resp.StatusCode)
	}

	var decoded checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Decision{}, fmt.Errorf("decode compliance response: %w", err)
	}

	return Decision{Allowed: decoded.Allowed, Reason: decoded.Reason}, nil
}
