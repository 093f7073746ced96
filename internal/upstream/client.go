// Package upstream fetches overview, statistics, issue and history payloads
// from the mrtdown JSON API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/foldaway/mrtdown-site-sub000/internal/cache"
	"github.com/foldaway/mrtdown-site-sub000/internal/config"
	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
	"github.com/foldaway/mrtdown-site-sub000/internal/monitoring"
	"github.com/foldaway/mrtdown-site-sub000/internal/tracing"
)

const (
	dateLayout      = "2006-01-02"
	maxResponseSize = 16 << 20
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Resource   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: http %d", e.Resource, e.StatusCode)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client reads from the API through a response cache.
type Client struct {
	baseURL string
	timeout time.Duration
	ttl     time.Duration
	client  *http.Client
	cache   cache.Cache
	log     logger.Logger
}

// New creates a client for cfg.Upstream. A nil store disables caching.
func New(cfg config.Config, store cache.Cache, log logger.Logger) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: cfg.Upstream.BaseURL,
		timeout: cfg.UpstreamTimeout(),
		ttl:     cfg.CacheTTL(),
		client:  &http.Client{Transport: transport, Timeout: cfg.UpstreamTimeout()},
		cache:   store,
		log:     log,
	}
}

// FetchOverview returns the landing-page payload.
func (c *Client) FetchOverview(ctx context.Context) (models.Overview, error) {
	var out models.Overview
	err := c.fetch(ctx, "overview", "/overview", &out)
	return out, err
}

// FetchStatistics returns the statistics dashboard payload.
func (c *Client) FetchStatistics(ctx context.Context) (models.Statistics, error) {
	var out models.Statistics
	err := c.fetch(ctx, "statistics", "/statistics", &out)
	return out, err
}

// FetchIssue returns a single issue with all of its intervals.
func (c *Client) FetchIssue(ctx context.Context, id string) (models.Issue, error) {
	var out models.Issue
	err := c.fetch(ctx, "issue", "/issues/"+url.PathEscape(id), &out)
	return out, err
}

// FetchHistoryDays returns the issues active during days calendar days from date.
func (c *Client) FetchHistoryDays(ctx context.Context, date time.Time, days int) (models.History, error) {
	var out models.History
	path := "/history/days/" + date.Format(dateLayout) + "?days=" + strconv.Itoa(days)
	err := c.fetch(ctx, "history_days", path, &out)
	return out, err
}

// FetchHistoryWeek returns the issues active during the week starting at date.
func (c *Client) FetchHistoryWeek(ctx context.Context, date time.Time) (models.History, error) {
	var out models.History
	err := c.fetch(ctx, "history_week", "/history/week/"+date.Format(dateLayout), &out)
	return out, err
}

func (c *Client) fetch(ctx context.Context, resource, path string, dest any) error {
	ctx, span := tracing.Tracer().Start(ctx, "upstream."+resource)
	defer span.End()
	span.SetAttributes(attribute.String("upstream.path", path))

	if c.cache != nil {
		if body, err := c.cache.Get(ctx, path); err == nil {
			if err := json.Unmarshal(body, dest); err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return nil
			}
			_ = c.cache.Delete(ctx, path)
		} else if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn("cache read failed", "key", path, "error", err)
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	body, err := c.getJSON(ctx, resource, path)
	if err == nil {
		if decodeErr := json.Unmarshal(body, dest); decodeErr != nil {
			err = fmt.Errorf("decode %s: %w", resource, decodeErr)
		}
	}
	monitoring.RecordUpstreamRequest(resource, time.Since(start), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, path, body, c.ttl); err != nil {
			c.log.Warn("cache write failed", "key", path, "error", err)
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, resource, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Resource: resource, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resource, err)
	}
	return body, nil
}
