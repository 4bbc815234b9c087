package core

import (
	"context"
	"sync"

	"attendance.agent/internal/core/model"
	"attendance.agent/internal/ports/remote"
	"github.com/rs/zerolog/log"
)

// StatusTracker holds the current attendance state for one (user, role)
// pair. The remote service is the source of truth; the tracker only caches
// the last reconciled snapshot for display and for gating submissions.
type StatusTracker struct {
	mu     sync.RWMutex
	client remote.Client
	role   model.RoleType
	status model.AttendanceStatus
	open   *model.AttendanceRecord
}

// NewStatusTracker creates a tracker for one role, starting from the
// fail-safe NOT_CLOCKED_IN state until the first refresh.
func NewStatusTracker(client remote.Client, role model.RoleType) *StatusTracker {
	return &StatusTracker{
		client: client,
		role:   role,
		status: model.StatusNotClockedIn,
	}
}

// Refresh re-reads the remote status. Safe to call after any submission and
// repeatedly from the display refresh loop; two consecutive calls with no
// intervening mutation return the same snapshot.
//
// On any transport or server failure the tracker resolves to NOT_CLOCKED_IN
// with no open record and returns the error alongside for display. Requiring
// an occasional extra manual check-in is judged safer than blocking the
// check-out UI while status is unknown.
func (t *StatusTracker) Refresh(ctx context.Context) (model.AttendanceStatus, *model.AttendanceRecord, error) {
	snap, err := t.client.FetchCurrentStatus(ctx, t.role)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("role", string(t.role)).Msg("Status fetch failed, falling back to NOT_CLOCKED_IN")
		t.status = model.StatusNotClockedIn
		t.open = nil
		return t.status, nil, err
	}

	t.status = snap.Status
	t.open = snap.OpenRecord
	if t.status != model.StatusOnShift {
		t.open = nil
	}
	return t.status, t.open, nil
}

// Current returns the last reconciled snapshot without a network call.
func (t *StatusTracker) Current() (model.AttendanceStatus, *model.AttendanceRecord) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.open
}

// OpenAttendanceID returns the id of the open record, if any.
func (t *StatusTracker) OpenAttendanceID() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.open == nil {
		return "", false
	}
	return t.open.ID, true
}

// Role returns the role this tracker watches.
func (t *StatusTracker) Role() model.RoleType {
	return t.role
}

// ApplyResult transitions the tracker after a settled successful submission:
// a check-in moves to ON_SHIFT holding the new attendance id, a check-out
// moves to NOT_CLOCKED_IN and clears the prior id.
func (t *StatusTracker) ApplyResult(action model.ClockAction, result *model.AttendanceResult, sample model.PositionSample, siteID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch action {
	case model.ActionClockIn:
		t.status = model.StatusOnShift
		t.open = &model.AttendanceRecord{
			ID:       result.AttendanceID,
			SiteID:   siteID,
			RoleType: t.role,
			CheckIn: model.CheckEvent{
				Timestamp:       result.CheckTime,
				Sample:          sample,
				IsValidLocation: result.IsValidLocation,
			},
		}
	case model.ActionClockOut:
		t.status = model.StatusNotClockedIn
		t.open = nil
	}
}
