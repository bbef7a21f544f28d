// Package etrain fetches delay history, timetables and train listings from an
// etrain.info style site and adapts them to the core ingest interfaces. The
// site publishes HTML pages; the interesting data sits in embedded chart
// JavaScript and data attributes, so the client scrapes rather than calling an
// API. Requests are throttled to one at a time with a politeness delay.
package etrain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Parthita/train-delay-backend/core/ingest"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/infra/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config defines how the scraping client reaches the timetable site.
type Config struct {
	BaseURL           string `json:"base_url"`
	UserAgent         string `json:"user_agent"`
	TimeoutSeconds    int    `json:"timeout_seconds"`
	PolitenessDelayMS int    `json:"politeness_delay_ms"`
}

// SetDefaults fills the knobs needed to scrape politely.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://etrain.info"
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
	if c.PolitenessDelayMS == 0 {
		c.PolitenessDelayMS = 1000
	}
}

// Validate rejects a base URL the HTTP client cannot use.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme %q", u.Scheme)
	}
	return nil
}

// Client scrapes train pages. It implements ingest.HistoryIngestor,
// ingest.ScheduleProvider and ingest.TrainFinder.
type Client struct {
	http     *http.Client
	base     string
	agent    string
	stations model.StationIndex
	delay    time.Duration
	log      logger.Logger

	mu   sync.Mutex
	next time.Time
}

// NewClient builds a scraping client. The station index maps the display
// names found on history pages back to station codes.
func NewClient(cfg Config, stations model.StationIndex) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		http:     &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		base:     strings.TrimSuffix(cfg.BaseURL, "/"),
		agent:    cfg.UserAgent,
		stations: stations,
		delay:    time.Duration(cfg.PolitenessDelayMS) * time.Millisecond,
		log:      logger.New("etrain"),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.agent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", path, ingest.ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

// throttle spaces requests by the politeness delay. Concurrent callers each
// get their own slot so a batch of workers never hammers the site.
func (c *Client) throttle(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	c.mu.Lock()
	now := time.Now()
	slot := c.next
	if slot.Before(now) {
		slot = now
	}
	c.next = slot.Add(c.delay)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// trainSlug builds the path segment train pages use, e.g. "Poorva-Express-12303".
func trainSlug(name, number string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return number
	}
	return strings.ReplaceAll(name, " ", "-") + "-" + number
}

// stationSlug builds the segment listing pages use, e.g. "Howrah-Jn-HWH".
func stationSlug(name, code string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-") + "-" + strings.ToUpper(strings.TrimSpace(code))
}

var (
	_ ingest.HistoryIngestor  = (*Client)(nil)
	_ ingest.ScheduleProvider = (*Client)(nil)
	_ ingest.TrainFinder      = (*Client)(nil)
)
