package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/straye-as/commission-api/internal/config"
	"go.uber.org/zap"
)

// ErrMissingToken is returned when no JobNimbus API token is configured
var ErrMissingToken = errors.New("jobnimbus token is missing")

// JobNimbusClient fetches jobs from the JobNimbus REST API
type JobNimbusClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

type jobsResponse struct {
	Count   int    `json:"count"`
	Results *[]Job `json:"results"`
}

// NewJobNimbusClient creates a client for {baseURL}/jobs/
func NewJobNimbusClient(cfg *config.JobFeedConfig, logger *zap.Logger) *JobNimbusClient {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &JobNimbusClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logger:     logger,
	}
}

// FetchJobs returns every job in the account
func (c *JobNimbusClient) FetchJobs(ctx context.Context) ([]Job, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jobnimbus request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("JobNimbus API error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("jobnimbus request failed with status %d", resp.StatusCode)
	}

	var payload jobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode jobnimbus response: %w", err)
	}
	if payload.Results == nil {
		return nil, fmt.Errorf("jobnimbus response has no results array")
	}

	c.logger.Info("Fetched jobs from JobNimbus",
		zap.Int("jobs", len(*payload.Results)),
		zap.Duration("duration", time.Since(start)),
	)
	return *payload.Results, nil
}
