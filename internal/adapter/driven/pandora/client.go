// Package pandora implements the PandoraClient port against Pandora's
// unofficial REST API (https://www.pandora.com/api/v1).
package pandora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PandoraClient = (*Client)(nil)

const (
	defaultBaseURL = "https://www.pandora.com"
	apiPrefix      = "/api/v1"

	csrfCookieName  = "csrftoken"
	csrfTokenHeader = "X-CsrfToken"
	authTokenHeader = "X-AuthToken"
)

// Options configures the Pandora client behavior.
type Options struct {
	Timeout         time.Duration
	RateLimit       rate.Limit
	RateLimitBurst  int
	MaxRetries      uint64
	PageSize        int // Feedback page size.
	StationPageSize int // Maximum stations fetched per ListStations call.
}

const (
	defaultTimeout         = 30 * time.Second
	defaultRateLimit       = rate.Limit(2)
	defaultRateLimitBurst  = 4
	defaultMaxRetries      = 3
	defaultPageSize        = 10
	defaultStationPageSize = 250
)

// Client implements the driven.PandoraClient port. The API is session-based:
// a CSRF token is bootstrapped with a HEAD request against the site root, and
// login yields an auth token carried on every subsequent request.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	username        string
	password        string
	limiter         *rate.Limiter
	maxRetries      uint64
	pageSize        int
	stationPageSize int

	mu        sync.Mutex
	csrfToken string
	authToken string
}

// NewClient creates a Pandora client for the given account.
func NewClient(username, password string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.StationPageSize <= 0 {
		opts.StationPageSize = defaultStationPageSize
	}

	return &Client{
		httpClient:      &http.Client{Timeout: opts.Timeout},
		baseURL:         defaultBaseURL,
		username:        username,
		password:        password,
		limiter:         rate.NewLimiter(opts.RateLimit, opts.RateLimitBurst),
		maxRetries:      opts.MaxRetries,
		pageSize:        opts.PageSize,
		stationPageSize: opts.StationPageSize,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, username, password string) *Client {
	c := NewClient(username, password, Options{RateLimit: rate.Inf})
	c.httpClient = httpClient
	c.baseURL = baseURL
	return c
}

// Login bootstraps the CSRF token and exchanges the account credentials for
// an auth token. It must be called before ListStations or ListLikedSongs.
func (c *Client) Login(ctx context.Context) error {
	if err := c.fetchCSRFToken(ctx); err != nil {
		return err
	}

	body := map[string]string{
		"username": c.username,
		"password": c.password,
	}
	var resp struct {
		AuthToken string `json:"authToken"`
	}
	if err := c.post(ctx, "/auth/login", body, &resp); err != nil {
		return fmt.Errorf("pandora login for %q: %w", c.username, err)
	}

	// A 200 without an authToken means the credentials were rejected.
	if resp.AuthToken == "" {
		return fmt.Errorf("pandora login for %q: %w", c.username, driven.ErrUnauthorized)
	}

	c.mu.Lock()
	c.authToken = resp.AuthToken
	c.mu.Unlock()

	slog.Debug("pandora login succeeded", "username", c.username)
	return nil
}

// ListStations returns the account's stations via /station/getStations.
func (c *Client) ListStations(ctx context.Context) ([]model.Station, error) {
	body := map[string]any{"pageSize": c.stationPageSize}
	var resp struct {
		Stations []stationJSON `json:"stations"`
	}
	if err := c.post(ctx, "/station/getStations", body, &resp); err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}

	stations := make([]model.Station, 0, len(resp.Stations))
	for _, s := range resp.Stations {
		stations = append(stations, model.Station{
			PandoraID: s.StationID,
			Name:      s.Name,
		})
	}
	return stations, nil
}

// ListLikedSongs returns every positively-rated song on a station. The
// feedback endpoint is paginated: a probe request with pageSize 1 reads the
// total, then full pages are fetched until all entries are collected.
func (c *Client) ListLikedSongs(ctx context.Context, stationID string) ([]model.Song, error) {
	total, err := c.feedbackTotal(ctx, stationID)
	if err != nil {
		return nil, err
	}

	songs := make([]model.Song, 0, total)
	for start := 0; start < total; start += c.pageSize {
		page, err := c.feedbackPage(ctx, stationID, start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break // Feedback shrank between probe and page fetch.
		}
		for _, f := range page {
			songs = append(songs, model.Song{
				FeedbackID: f.FeedbackID,
				StationID:  stationID,
				Title:      f.SongTitle,
				Artist:     f.ArtistName,
				Album:      f.AlbumTitle,
			})
		}
	}

	slog.Debug("station feedback fetched", "station", stationID, "total", total, "songs", len(songs))
	return songs, nil
}

// feedbackTotal probes /station/getStationFeedback for the entry count.
func (c *Client) feedbackTotal(ctx context.Context, stationID string) (int, error) {
	body := map[string]any{
		"stationId": stationID,
		"positive":  true,
		"pageSize":  1,
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := c.post(ctx, "/station/getStationFeedback", body, &resp); err != nil {
		return 0, fmt.Errorf("probing feedback total for station %s: %w", stationID, err)
	}
	return resp.Total, nil
}

// feedbackPage fetches one page of positive feedback starting at startIndex.
func (c *Client) feedbackPage(ctx context.Context, stationID string, startIndex int) ([]feedbackJSON, error) {
	body := map[string]any{
		"stationId":  stationID,
		"positive":   true,
		"pageSize":   c.pageSize,
		"startIndex": startIndex,
	}
	var resp struct {
		Feedback []feedbackJSON `json:"feedback"`
	}
	if err := c.post(ctx, "/station/getStationFeedback", body, &resp); err != nil {
		return nil, fmt.Errorf("fetching feedback for station %s (start %d): %w", stationID, startIndex, err)
	}
	return resp.Feedback, nil
}

// fetchCSRFToken issues a HEAD request against the site root and captures the
// csrftoken cookie. The token rides along as both a cookie and a header on
// every API request.
func (c *Client) fetchCSRFToken(ctx context.Context) error {
	c.mu.Lock()
	have := c.csrfToken != ""
	c.mu.Unlock()
	if have {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("building csrf request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching csrf token: %w", err)
	}
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == csrfCookieName {
			c.mu.Lock()
			c.csrfToken = cookie.Value
			c.mu.Unlock()
			return nil
		}
	}

	return fmt.Errorf("csrf cookie %q missing from %s response", csrfCookieName, c.baseURL)
}

// post sends a JSON POST to an API endpoint, retrying transient failures with
// exponential backoff, and decodes the response body into out.
func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return c.doPost(ctx, endpoint, payload, out)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	return backoff.Retry(operation, policy)
}

// doPost performs a single POST attempt. Transport errors and 5xx/429
// responses are returned as-is (retryable); other failures are wrapped in
// backoff.Permanent.
func (c *Client) doPost(ctx context.Context, endpoint string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+endpoint, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("building request for %s: %w", endpoint, err))
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	if c.csrfToken != "" {
		req.Header.Set(csrfTokenHeader, c.csrfToken)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: c.csrfToken})
	}
	if c.authToken != "" {
		req.Header.Set(authTokenHeader, c.authToken)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%s returned %d: %w", endpoint, resp.StatusCode, driven.ErrUnauthorized))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		slog.Warn("pandora api transient failure", "endpoint", endpoint, "status", resp.StatusCode)
		return fmt.Errorf("%s returned %d", endpoint, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return backoff.Permanent(fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decoding %s response: %w", endpoint, err))
	}
	return nil
}

// stationJSON mirrors the station objects of /station/getStations.
type stationJSON struct {
	StationID string `json:"stationId"`
	Name      string `json:"name"`
}

// feedbackJSON mirrors the feedback objects of /station/getStationFeedback.
type feedbackJSON struct {
	FeedbackID string `json:"feedbackId"`
	SongTitle  string `json:"songTitle"`
	ArtistName string `json:"artistName"`
	AlbumTitle string `json:"albumTitle"`
}
