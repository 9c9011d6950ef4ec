// Package crmapi é o cliente HTTP autenticado do backend CRM.
package crmapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"chatstatus/src/domain"
)

const maxBodyBytes = 10 << 20

type Config struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	RateLimitQPS float64
	Burst        int
}

type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    *url.URL
	token      string
	limiter    *rate.Limiter
}

func NewClient(logger *slog.Logger, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("crmapi.NewClient - base URL is required")
	}

	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("crmapi.NewClient - invalid base URL: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimitQPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitQPS), burst)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		logger: logger,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL: baseURL,
		token:   cfg.Token,
		limiter: limiter,
	}, nil
}

// Get executa um GET autenticado e devolve o corpo de uma resposta 2xx.
// Falhas de transporte viram KindNetworkFailure e status fora de 2xx viram
// KindNonSuccessStatus, ambos como *domain.LookupError.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.LookupError{Kind: domain.KindNetworkFailure, Resource: path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, &domain.LookupError{Kind: domain.KindNetworkFailure, Resource: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokenFor(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("CRM request failed", "path", path, "error", err)
		return nil, &domain.LookupError{Kind: domain.KindNetworkFailure, Resource: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.LookupError{Kind: domain.KindNetworkFailure, Resource: path, Err: err}
	}

	c.logger.Debug("CRM request",
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.LookupError{
			Kind:       domain.KindNonSuccessStatus,
			Resource:   path,
			StatusCode: resp.StatusCode,
		}
	}

	return body, nil
}

func (c *Client) tokenFor(ctx context.Context) string {
	if token, ok := BearerTokenFrom(ctx); ok {
		return token
	}
	return c.token
}

// IsCanceled diferencia cancelamento (sessão fechada) de falha real de rede.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
