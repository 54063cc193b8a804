// Package holidays fetches public holidays from a Nager.Date compatible API.
package holidays

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/goccy/go-json"
)

// Client implements calendar.HolidaySource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for cfg.HolidaySourceURL.
func NewClient(cfg config.CalendarConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.HolidaySourceURL, "/"),
		httpClient: &http.Client{Timeout: cfg.HolidaySourceTimeout},
	}
}

// APIError represents a non-2xx response from the holiday API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("holiday API error [%d]: %s", e.StatusCode, e.Body)
}

// Unwrap lets callers match every API failure as an upstream outage.
func (e *APIError) Unwrap() error { return apperror.ErrUpstreamUnavailable }

type publicHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

func (c *Client) PublicHolidays(ctx context.Context, countryCode string, year int) ([]calendar.PublicHoliday, error) {
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, strings.ToUpper(countryCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	// 204 is returned for countries the API does not cover.
	if resp.StatusCode == http.StatusNoContent {
		return []calendar.PublicHoliday{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var raw []publicHoliday
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode holidays: %v", apperror.ErrUpstreamUnavailable, err)
	}

	result := make([]calendar.PublicHoliday, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, h := range raw {
		date, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid holiday date %q", apperror.ErrUpstreamUnavailable, h.Date)
		}
		// Regional variants repeat the same date.
		if seen[h.Date] {
			continue
		}
		seen[h.Date] = true

		name := h.Name
		if name == "" {
			name = h.LocalName
		}
		result = append(result, calendar.PublicHoliday{Date: date, Name: name})
	}
	return result, nil
}
