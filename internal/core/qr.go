package core

import (
	"strings"
	"sync"
	"unicode"

	"attendance.agent/internal/core/model"
)

// ResolveScan maps a scanned code plus the current attendance status onto an
// implicit clock action: not clocked in means the scan is a check-in, on
// shift means it is a check-out. The code itself is an opaque token here;
// which site or checkpoint it names is validated by the remote service.
// Invalid codes leave the workflow in its current state, able to retry.
func ResolveScan(code string, status model.AttendanceStatus) (model.ClockAction, error) {
	if !validScanCode(code) {
		return "", ErrInvalidScanCode
	}

	if status == model.StatusOnShift {
		return model.ActionClockOut, nil
	}
	return model.ActionClockIn, nil
}

// validScanCode rejects empty frames and decode garbage containing control
// characters. Anything printable is accepted as an opaque token.
func validScanCode(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ScanStream turns a raw scanner frame feed into a sequence of distinct,
// valid codes. Continuous scanning produces a lot of noise: partial decodes
// and the same code delivered on every frame while it is in view. Both are
// dropped here so only a successfully decoded, distinct code reaches the
// resolver.
type ScanStream struct {
	mu   sync.Mutex
	last string
	out  chan string
}

// NewScanStream creates a stream with room for buffer pending codes.
func NewScanStream(buffer int) *ScanStream {
	return &ScanStream{
		out: make(chan string, buffer),
	}
}

// Offer feeds one raw frame into the stream. It reports whether the frame
// was accepted as a new distinct code. Frames are dropped silently when the
// consumer is behind; the scanner will deliver the code again.
func (s *ScanStream) Offer(raw string) bool {
	if !validScanCode(raw) {
		return false
	}
	code := strings.TrimSpace(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	if code == s.last {
		return false
	}

	select {
	case s.out <- code:
		s.last = code
		return true
	default:
		return false
	}
}

// Codes is the stream of accepted codes.
func (s *ScanStream) Codes() <-chan string {
	return s.out
}

// Restart forgets the last seen code so the same badge can be scanned again
// after the workflow settles (e.g. a check-in followed by a check-out with
// the same code).
func (s *ScanStream) Restart() {
	s.mu.Lock()
	s.last = ""
	s.mu.Unlock()
}
