// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/recommend"
)

// maxErrorBodySize limits how much of an error response is read for logging.
const maxErrorBodySize = 4 * 1024

// Request outcomes used as metric labels.
const (
	resultOK       = "ok"
	resultError    = "error"
	resultRejected = "rejected"
	resultNotFound = "not_found"
)

// errNotFound marks an HTTP 404. Callers translate it into an empty result.
var errNotFound = errors.New("resource not found")

// statusError is a non-2xx response.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

// clientSide reports whether the status is a caller error that says nothing
// about the health of the remote service.
func (e *statusError) clientSide() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests
}

// envelope is the response wrapper of every collaborator endpoint.
type envelope[T any] struct {
	Data T `json:"data"`
}

// restClient is the shared HTTP pipeline of the collaborator clients.
type restClient struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newRESTClient(name, baseURL string, cfg *Config, logger zerolog.Logger) *restClient {
	c := &restClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:  logger.With().Str("component", "upstream").Str("client", name).Logger(),
	}
	failures := cfg.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "upstream-" + name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, errNotFound) {
				return true
			}
			var se *statusError
			return errors.As(err, &se) && se.clientSide()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("upstream circuit breaker state changed")
		},
	})
	return c
}

// getJSON fetches path with query and decodes the data field of the envelope
// into out.
func getJSON[T any](ctx context.Context, c *restClient, op, path string, query url.Values, out *T) error {
	start := time.Now()
	body, err := c.fetch(ctx, path, query)
	if err == nil {
		var env envelope[T]
		if err = json.Unmarshal(body, &env); err != nil {
			err = fmt.Errorf("decode response: %w", err)
		} else {
			*out = env.Data
		}
	}

	metrics.RecordUpstream(c.name, op, resultLabel(err), time.Since(start))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNotFound):
		return err
	default:
		c.logger.Debug().Err(err).Str("op", op).Str("path", path).Msg("upstream request failed")
		return recommend.Unavailable(c.name+"."+op, err)
	}
}

func (c *restClient) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return c.breaker.Execute(func() ([]byte, error) {
		reqURL := c.baseURL + path
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request failed: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, errNotFound
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize)) //nolint:errcheck // best-effort diagnostics
			return nil, &statusError{Status: resp.StatusCode, Body: string(body)}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, errNotFound):
		return resultNotFound
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return resultRejected
	default:
		return resultError
	}
}

func pageQuery(afterID int64, limit int) url.Values {
	q := url.Values{}
	q.Set("after", fmt.Sprintf("%d", afterID))
	q.Set("limit", fmt.Sprintf("%d", limit))
	return q
}
