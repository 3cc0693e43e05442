// Package oracle talks to the external trade-signal classifier. The
// classifier is an opaque scoring service: its decision is authoritative and
// never overridden locally.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bullsignals/internal/model"
)

// Client posts feature vectors to the classifier's /signal endpoint.
// It satisfies model.SignalOracle.
type Client struct {
	signalURL string
	http      *http.Client
}

// New creates a Client for the classifier at baseURL (e.g. a Hugging Face
// Space). The /signal path is appended here.
func New(baseURL string) *Client {
	return &Client{
		signalURL: baseURL + "/signal",
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type request struct {
	Features  model.FeatureVector `json:"features"`
	Threshold float64             `json:"threshold"`
}

// Ask sends {features, threshold} and decodes the decision. Transport
// failures and non-2xx statuses surface as OracleUnavailableError; there is
// no local retry — the caller decides whether to report or wait for the next
// tick.
func (c *Client) Ask(ctx context.Context, features model.FeatureVector, threshold float64) (*model.OracleDecision, error) {
	body, err := json.Marshal(request{Features: features, Threshold: threshold})
	if err != nil {
		return nil, fmt.Errorf("oracle: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.signalURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("oracle: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &model.OracleUnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.OracleUnavailableError{Status: resp.StatusCode}
	}

	var decision model.OracleDecision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return nil, &model.OracleUnavailableError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &decision, nil
}
