// Package camera captures photo evidence through the device's camera
// bridge. The camera is an exclusively held resource: only one capture
// session may be open at a time, and every session must be released on
// every exit path.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"attendance.agent/internal/core/model"
	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrBusy means another capture session currently owns the camera.
	ErrBusy = errors.New("camera already in use")
	// ErrUnavailable means the device has no usable camera.
	ErrUnavailable = errors.New("camera unavailable")
	// ErrPermissionDenied means the user or platform refused camera access.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrNoFileSelected means the capture was dismissed without a photo.
	ErrNoFileSelected = errors.New("no photo captured")
	// ErrInvalidMediaType means the captured payload is not an image.
	ErrInvalidMediaType = errors.New("captured payload is not an image")
	// ErrSessionReleased means Capture was called on a released session.
	ErrSessionReleased = errors.New("capture session already released")
	// ErrTooLarge means the captured payload exceeds maxEvidenceBytes.
	ErrTooLarge = errors.New("captured payload too large")
)

// maxEvidenceBytes caps how much image data a single capture may return.
const maxEvidenceBytes = 8 << 20

// Capturer mediates exclusive access to the camera bridge.
type Capturer struct {
	mu      sync.Mutex
	busy    bool
	client  *http.Client
	baseURL string
}

// NewCapturer creates a Capturer for the bridge at baseURL.
func NewCapturer(baseURL string) *Capturer {
	return &Capturer{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: baseURL,
	}
}

// Acquire opens a capture session, failing with ErrBusy if one is already
// open. Callers must Release the session on every exit path; deferring
// Release immediately after a successful Acquire is the expected pattern.
func (c *Capturer) Acquire(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, ErrBusy
	}
	c.busy = true
	return &Session{capturer: c}, nil
}

// release returns the camera to the pool. Called via Session.Release only.
func (c *Capturer) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Session is one scoped ownership of the camera. Release is idempotent, so
// it is safe to both defer it and call it early on cancellation.
type Session struct {
	capturer *Capturer
	once     sync.Once
	released bool
	mu       sync.Mutex
}

// Release frees the camera. After Release, Capture fails.
func (s *Session) Release() {
	s.once.Do(func() {
		s.mu.Lock()
		s.released = true
		s.mu.Unlock()
		s.capturer.release()
	})
}

// Capture invokes the camera bridge and returns exactly one image. The
// bridge opens the live camera UI; a dismissed UI comes back as 204 and maps
// to ErrNoFileSelected. Non-image payloads are rejected here so the
// workflow never carries one to submission.
func (s *Session) Capture(ctx context.Context) (*model.EvidenceImage, error) {
	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released {
		return nil, ErrSessionReleased
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.capturer.baseURL+"/v1/capture", nil)
	if err != nil {
		return nil, fmt.Errorf("building capture request: %w", err)
	}

	resp, err := s.capturer.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, ErrNoFileSelected
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrPermissionDenied
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: bridge status %d", ErrUnavailable, resp.StatusCode)
	}

	// Read one byte past the cap so an oversize capture is rejected rather
	// than silently truncated into a corrupt image.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxEvidenceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading capture payload: %v", ErrUnavailable, err)
	}
	if len(data) == 0 {
		return nil, ErrNoFileSelected
	}
	if len(data) > maxEvidenceBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, maxEvidenceBytes)
	}

	// Sniff the real content type; the bridge's header is not trusted.
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidMediaType, detected.String())
	}

	// The bridge attests whether the frame came off a live camera rather
	// than a gallery picker. Where it cannot, the policy is advisory and
	// the flag stays false.
	fromCamera := resp.Header.Get("X-Capture-Source") == "camera"

	return &model.EvidenceImage{
		Data:               data,
		MIMEType:           detected.String(),
		CapturedFromCamera: fromCamera,
		CapturedAt:         time.Now(),
	}, nil
}
