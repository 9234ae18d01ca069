package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ComplianceClient serves the fleet-level compliance endpoints.
type ComplianceClient struct {
	client *Client
}

// CalendarOptions bounds the survey calendar range. Zero times keep the
// server's default range of the coming ninety days.
type CalendarOptions struct {
	From time.Time
	To   time.Time
}

// FleetRecalcResponse is the outcome of a fleet-wide recalculation
// request. Requested is true when the run was handed to the worker; the
// report fields are populated when the server ran it in-process.
type FleetRecalcResponse struct {
	Requested bool   `json:"requested"`
	Scope     string `json:"scope,omitempty"`

	RecalcReport
}

// Summary fetches the aggregated fleet compliance summary.
func (cc *ComplianceClient) Summary(ctx context.Context) (*FleetSummary, error) {
	var summary FleetSummary
	if err := cc.client.get(ctx, "/compliance/summary", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Calendar fetches the fleet survey calendar.
func (cc *ComplianceClient) Calendar(ctx context.Context, opts CalendarOptions) ([]CalendarEvent, error) {
	var events []CalendarEvent
	if err := cc.client.get(ctx, calendarPath(opts, ""), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CalendarICal fetches the calendar as an iCalendar document.
func (cc *ComplianceClient) CalendarICal(ctx context.Context, opts CalendarOptions) ([]byte, error) {
	fullURL := cc.client.baseURL + apiPrefix + calendarPath(opts, "ics")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("client: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", cc.client.userAgent)

	resp, err := cc.client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// RecalculateShip recalculates one ship synchronously.
func (cc *ComplianceClient) RecalculateShip(ctx context.Context, shipID string) (*ShipRecalcResult, error) {
	body := map[string]string{"ship_id": shipID}
	var result ShipRecalcResult
	if err := cc.client.post(ctx, "/compliance/recalc", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecalculateFleet requests a fleet-wide recalculation.
func (cc *ComplianceClient) RecalculateFleet(ctx context.Context, reason string) (*FleetRecalcResponse, error) {
	body := map[string]string{}
	if reason != "" {
		body["reason"] = reason
	}
	var result FleetRecalcResponse
	if err := cc.client.post(ctx, "/compliance/recalc", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Report generates and archives the fleet compliance CSV, returning its
// download link.
func (cc *ComplianceClient) Report(ctx context.Context) (*FleetReport, error) {
	var report FleetReport
	if err := cc.client.get(ctx, "/compliance/report", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func calendarPath(opts CalendarOptions, format string) string {
	q := url.Values{}
	if !opts.From.IsZero() {
		q.Set("from", opts.From.Format(time.DateOnly))
	}
	if !opts.To.IsZero() {
		q.Set("to", opts.To.Format(time.DateOnly))
	}
	if format != "" {
		q.Set("format", format)
	}

	path := "/compliance/calendar"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return path
}
