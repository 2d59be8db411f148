// Package backoffice is the timesheet back-office client. Tenants expose the
// entries feed under slightly different paths, so fetches walk a list of
// known endpoint variants: transient failures step to the next variant,
// authentication failures abort the whole fetch.
package backoffice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// entryPathVariants are the known shapes of the time entries feed, probed in
// order
var entryPathVariants = []string{
	"/api/v1/timesheets/entries",
	"/api/v1/time-entries",
	"/api/timesheets/entries",
}

// ErrUnavailable marks a source that failed on every endpoint variant.
// Callers degrade to a warning instead of failing the batch.
var ErrUnavailable = errors.New("back office service unavailable")

// Config holds back-office credentials and endpoints
type Config struct {
	Username string
	Password string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

// Client talks to the back-office REST API
type Client struct {
	cfg     Config
	http    *httpclient.Client
	logger  ectologger.Logger
	headers map[string]string
}

// New creates a back-office client
func New(cfg Config, httpClient *httpclient.Client, logger ectologger.Logger) *Client {
	if cfg.PageSize <= 0 || cfg.PageSize > 500 {
		cfg.PageSize = 500
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
		headers: map[string]string{
			"X-API-Key":     cfg.APIKey,
			"Authorization": "Basic " + basic,
			"Accept":        "application/json",
		},
	}
}

// Ping probes the health endpoint. Many tenants have none, so a failed ping
// is advisory only.
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.http.Get(ctx, c.cfg.BaseURL+"/api/v1/health", nil, c.headers)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Back office ping failed")
		return false
	}
	return resp.StatusCode < http.StatusBadRequest
}

// TimeEntries fetches every time entry worked inside the window, following
// pagination. It returns ErrUnavailable when all endpoint variants fail
// transiently; 401/403 propagates as an auth error immediately.
func (c *Client) TimeEntries(ctx context.Context, start, end time.Time) ([]models.TimeEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "backoffice.TimeEntries")
	defer span.End()

	log := c.logger.WithContext(ctx)

	var lastErr error
	for _, path := range entryPathVariants {
		entries, err := c.fetchAllPages(ctx, path, start, end)
		if err == nil {
			log.WithFields(map[string]any{"count": len(entries), "path": path}).Info("Fetched back office time entries")
			return entries, nil
		}
		if httperror.IsHTTPError(err) {
			return nil, err
		}
		log.WithError(err).WithFields(map[string]any{"path": path}).Warn("Back office endpoint variant failed, trying next")
		lastErr = err
	}

	return nil, errors.Wrapf(ErrUnavailable, "all endpoint variants failed: %v", lastErr)
}

func (c *Client) fetchAllPages(ctx context.Context, path string, start, end time.Time) ([]models.TimeEntry, error) {
	var all []models.TimeEntry
	page := 1

	for {
		payload, err := c.fetchPage(ctx, path, start, end, page)
		if err != nil {
			return nil, err
		}

		entries := payload.entries()
		if len(entries) == 0 {
			break
		}
		all = append(all, entries...)

		next, more := payload.next(page)
		if !more {
			break
		}
		page = next
	}

	return all, nil
}

// entriesPayload tolerates both response shapes seen in the wild
type entriesPayload struct {
	Data     []models.TimeEntry `json:"data"`
	Entries  []models.TimeEntry `json:"entries"`
	NextPage any                `json:"nextPage"`
	HasMore  any                `json:"hasMore"`
}

func (p *entriesPayload) entries() []models.TimeEntry {
	if len(p.Data) > 0 {
		return p.Data
	}
	return p.Entries
}

// next interprets the pagination hint, which may be a boolean flag or the
// next page number
func (p *entriesPayload) next(current int) (int, bool) {
	hint := p.NextPage
	if hint == nil {
		hint = p.HasMore
	}

	switch v := hint.(type) {
	case bool:
		return current + 1, v
	case string:
		return current + 1, v == "true"
	case float64:
		next := int(v)
		return next, next > current
	default:
		return 0, false
	}
}

func (c *Client) fetchPage(ctx context.Context, path string, start, end time.Time, page int) (*entriesPayload, error) {
	params := url.Values{
		"dateFrom": {start.Format("2006-01-02")},
		"dateTo":   {end.Format("2006-01-02")},
		"page":     {fmt.Sprintf("%d", page)},
		"pageSize": {fmt.Sprintf("%d", c.cfg.PageSize)},
	}

	resp, err := c.http.Get(ctx, c.cfg.BaseURL+path, params, c.headers)
	if err != nil {
		return nil, errors.Wrap(err, "back office request failed")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, httperror.NewHTTPErrorf(http.StatusUnauthorized, "back office returned %d, verify credentials", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("back office GET %s returned %d", path, resp.StatusCode)
	}

	var payload entriesPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode back office response")
	}
	return &payload, nil
}
