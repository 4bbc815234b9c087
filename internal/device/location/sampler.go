// Package location acquires single position fixes from the device's
// sensor bridge.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"attendance.agent/internal/core/model"
)

var (
	// ErrUnavailable means the device has no usable positioning capability.
	ErrUnavailable = errors.New("location unavailable")
	// ErrTimeout means no fix arrived within the requested window.
	ErrTimeout = errors.New("location timed out")
	// ErrDenied means the user or platform refused the location permission.
	ErrDenied = errors.New("location permission denied")
)

// Options controls a single acquisition. MaxAge is the oldest cached fix the
// caller will accept; the attendance workflow always passes 0, forcing a
// fresh physical read before every submission.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

// Sampler produces one position sample per call, or fails.
type Sampler interface {
	Sample(ctx context.Context, opts Options) (*model.PositionSample, error)
}

// BridgeClient reads fixes from the local sensor bridge over HTTP. The
// bridge owns the actual GNSS hardware and permission prompts; this client
// only translates its responses into the workflow's terms.
type BridgeClient struct {
	client  *http.Client
	baseURL string
}

// NewBridgeClient creates a client for the bridge at baseURL.
func NewBridgeClient(baseURL string) *BridgeClient {
	return &BridgeClient{
		client:  &http.Client{},
		baseURL: baseURL,
	}
}

type bridgePosition struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracyMeters"`
	CapturedAt     time.Time `json:"capturedAt"`
}

// Sample requests one fix from the bridge. The request context carries the
// timeout; the bridge is also told the limits so it can abort the hardware
// read itself.
func (c *BridgeClient) Sample(ctx context.Context, opts Options) (*model.PositionSample, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("maxAgeMs", strconv.FormatInt(opts.MaxAge.Milliseconds(), 10))
	q.Set("timeoutMs", strconv.FormatInt(opts.Timeout.Milliseconds(), 10))
	if opts.HighAccuracy {
		q.Set("highAccuracy", "1")
	}

	endpoint := c.baseURL + "/v1/position?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building position request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrDenied
	case resp.StatusCode == http.StatusGatewayTimeout:
		return nil, ErrTimeout
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: bridge status %d", ErrUnavailable, resp.StatusCode)
	}

	var pos bridgePosition
	if err := json.NewDecoder(resp.Body).Decode(&pos); err != nil {
		return nil, fmt.Errorf("%w: decoding bridge response: %v", ErrUnavailable, err)
	}

	captured := pos.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}

	return &model.PositionSample{
		Latitude:       pos.Latitude,
		Longitude:      pos.Longitude,
		AccuracyMeters: pos.AccuracyMeters,
		CapturedAt:     captured,
	}, nil
}
