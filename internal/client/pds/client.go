// Package pds provides a client for the XRPC API of a PDS.
package pds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"pds-status/internal/config"
)

// MaxPageSize is the largest page com.atproto.sync.listRepos accepts.
const MaxPageSize = 1000

// Client is a client for the PDS XRPC API.
type Client struct {
	endpoint   string             // PDS base URL
	timeout    time.Duration      // Request timeout
	retry      config.RetryConfig // Retry configuration
	httpClient *resty.Client      // HTTP client
	logger     zerolog.Logger     // Logger
}

// NewClient creates a new PDS API client.
func NewClient(cfg *config.ServiceConfig, retryCfg *config.RetryConfig, logger zerolog.Logger) *Client {
	// Set default timeout if not specified
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	// Set default retry config if not specified
	retry := config.RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
	}
	if retryCfg != nil {
		retry = *retryCfg
	}

	httpClient := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retry.MaxRetries).
		SetRetryWaitTime(retry.BaseDelay).
		SetRetryMaxWaitTime(retry.BaseDelay * 8). // Max wait time for exponential backoff
		AddRetryCondition(retryCondition)

	return &Client{
		endpoint:   cfg.Endpoint,
		timeout:    timeout,
		retry:      retry,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "pds-client").Logger(),
	}
}

// retryCondition determines whether a request should be retried.
// Retry on transport failures and 5xx responses; never on 4xx or a
// cancelled/expired context.
func retryCondition(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}

	if resp != nil && resp.StatusCode() >= 500 {
		return true
	}

	return false
}

// ListRepos fetches one page of com.atproto.sync.listRepos.
func (c *Client) ListRepos(ctx context.Context, cursor string, limit int) (*ListReposResponse, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := map[string]string{
		"limit": strconv.Itoa(limit),
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	var result ListReposResponse
	var apiErr ErrorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		SetError(&apiErr).
		Get("/xrpc/com.atproto.sync.listRepos")

	if err != nil {
		c.logger.Debug().Err(err).Str("cursor", cursor).Msg("failed to list repos")
		return nil, fmt.Errorf("failed to list repos: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Error().
			Int("status_code", resp.StatusCode()).
			Str("api_error", apiErr.Error).
			Msg("listRepos returned non-200 status")
		return nil, fmt.Errorf("listRepos returned status %d: %s", resp.StatusCode(), describeError(&apiErr, resp))
	}

	c.logger.Debug().
		Int("count", len(result.Repos)).
		Bool("has_more", result.Cursor != "").
		Msg("fetched repo page")
	return &result, nil
}

// Health calls /xrpc/_health and returns the reported server version.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get("/xrpc/_health")

	if err != nil {
		return nil, fmt.Errorf("failed to query health: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := result.Error
		if msg == "" {
			msg = string(resp.Body())
		}
		return nil, fmt.Errorf("health endpoint returned status %d: %s", resp.StatusCode(), msg)
	}

	return &result, nil
}

func describeError(apiErr *ErrorResponse, resp *resty.Response) string {
	switch {
	case apiErr.Message != "":
		return apiErr.Error + ": " + apiErr.Message
	case apiErr.Error != "":
		return apiErr.Error
	default:
		return string(resp.Body())
	}
}
