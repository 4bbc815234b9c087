package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"attendance.agent/internal/core/model"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient talks to the remote attendance service over JSON/HTTP.
//
// Submissions are single requests with no retry: each one carries a fresh,
// time-sensitive position/evidence pair that would be stale on a retry.
// Status fetches are read-only and run behind a circuit breaker so the
// periodic display refresh cannot hammer a struggling backend.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	cb      *gobreaker.CircuitBreaker
}

// NewHTTPClient builds a client for the service rooted at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	settings := gobreaker.Settings{
		Name:     "attendance-status",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// SubmitCheckIn opens a new attendance record.
func (c *HTTPClient) SubmitCheckIn(ctx context.Context, req CheckInRequest) (*model.AttendanceResult, error) {
	var res model.AttendanceResult
	if err := c.post(ctx, "/api/v1/attendance/check-in", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitCheckOut closes the open record referenced by req.AttendanceID.
func (c *HTTPClient) SubmitCheckOut(ctx context.Context, req CheckOutRequest) (*model.AttendanceResult, error) {
	var res model.AttendanceResult
	if err := c.post(ctx, "/api/v1/attendance/check-out", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitQRAction submits a scanned code for implicit dispatch.
func (c *HTTPClient) SubmitQRAction(ctx context.Context, req QRActionRequest) (*QRActionResult, error) {
	var res QRActionResult
	if err := c.post(ctx, "/api/v1/attendance/qr-action", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchCurrentStatus reads the current shift state for a role. The call goes
// through the circuit breaker; an open breaker surfaces as a TransportError
// and the caller falls back to its fail-safe default.
func (c *HTTPClient) FetchCurrentStatus(ctx context.Context, role model.RoleType) (*StatusSnapshot, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		endpoint := c.baseURL + "/api/v1/attendance/status?role=" + url.QueryEscape(string(role))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, &TransportError{Op: "fetch status", Err: err}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, &TransportError{Op: "fetch status", Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, c.rejection(resp)
		}

		var snap StatusSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return nil, &TransportError{Op: "decode status", Err: err}
		}
		return &snap, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &TransportError{Op: "fetch status", Err: err}
		}
		return nil, err
	}
	return out.(*StatusSnapshot), nil
}

// post sends one JSON request and decodes the response into res. Non-2xx
// responses become RejectionErrors carrying the server's message verbatim.
func (c *HTTPClient) post(ctx context.Context, path string, body, res interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: "call attendance service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.rejection(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return &TransportError{Op: "decode response", Err: err}
	}
	return nil
}

// rejection extracts the server's error message from a non-2xx response.
func (c *HTTPClient) rejection(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return &RejectionError{StatusCode: resp.StatusCode, Message: body.Message}
	}
	return &RejectionError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}
