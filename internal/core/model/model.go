package model

import (
	"fmt"
	"strings"
	"time"
)

// RoleType identifies which site-based role an attendance action belongs to.
// A user can hold several roles at once; open records are tracked per role.
type RoleType string

const (
	RoleSecurity RoleType = "SECURITY"
	RoleCleaning RoleType = "CLEANING"
	RoleDriver   RoleType = "DRIVER"
	RoleParking  RoleType = "PARKING"
)

// Valid reports whether r is one of the known role types.
func (r RoleType) Valid() bool {
	switch r {
	case RoleSecurity, RoleCleaning, RoleDriver, RoleParking:
		return true
	}
	return false
}

// AttendanceStatus is the client-visible shift state for a (user, role) pair.
type AttendanceStatus string

const (
	StatusNotClockedIn AttendanceStatus = "NOT_CLOCKED_IN"
	StatusOnShift      AttendanceStatus = "ON_SHIFT"
)

// ClockAction is the verb of a single attendance submission.
type ClockAction string

const (
	ActionClockIn  ClockAction = "CLOCK_IN"
	ActionClockOut ClockAction = "CLOCK_OUT"
)

// RecordStatus is derived from the presence of a check-out event.
type RecordStatus string

const (
	RecordOpen      RecordStatus = "OPEN"
	RecordCompleted RecordStatus = "COMPLETED"
)

// PositionSample is a single location fix. Samples are scoped to one
// submission attempt and are never reused across attempts.
type PositionSample struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracyMeters"`
	CapturedAt     time.Time `json:"capturedAt"`
}

// EvidenceImage is the single camera-sourced photo attached to an attendance
// action. CapturedFromCamera is an attestation from the capture bridge; when
// the platform cannot attest the origin it is false and the policy is
// advisory only.
type EvidenceImage struct {
	Data               []byte    `json:"-"`
	MIMEType           string    `json:"mimeType"`
	CapturedFromCamera bool      `json:"capturedFromCamera"`
	CapturedAt         time.Time `json:"capturedAt"`
}

// IsImage reports whether the payload carries an image MIME type.
func (e *EvidenceImage) IsImage() bool {
	return strings.HasPrefix(e.MIMEType, "image/")
}

// CheckEvent is one half of an attendance record: the moment, the location
// fix it was made with, and the server-side geofence verdict on that fix.
type CheckEvent struct {
	Timestamp       time.Time      `json:"timestamp"`
	Sample          PositionSample `json:"sample"`
	IsValidLocation bool           `json:"isValidLocation"`
}

// AttendanceRecord is one open-or-closed work session. Records are created
// and closed only by the remote service; the client reads them and never
// mutates one directly.
type AttendanceRecord struct {
	ID       string      `json:"id"`
	SiteID   int64       `json:"siteId"`
	RoleType RoleType    `json:"roleType"`
	ShiftID  string      `json:"shiftId,omitempty"`
	CheckIn  CheckEvent  `json:"checkIn"`
	CheckOut *CheckEvent `json:"checkOut,omitempty"`
}

// Status derives OPEN/COMPLETED from the presence of a check-out event.
func (r *AttendanceRecord) Status() RecordStatus {
	if r.CheckOut == nil {
		return RecordOpen
	}
	return RecordCompleted
}

// ShiftDefinition is static, site-independent schedule configuration.
// ScheduledStart is a time of day in "HH:MM" form.
type ShiftDefinition struct {
	ID             string `json:"id" yaml:"id"`
	Label          string `json:"label" yaml:"label"`
	ScheduledStart string `json:"scheduledStart" yaml:"scheduledStart"`
}

// StartOn reapplies the shift's time of day to the calendar date of day.
// A shift starting "00:00" is that day's midnight; there is no rollover
// handling across midnight boundaries.
func (s ShiftDefinition) StartOn(day time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", s.ScheduledStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled start %q: %w", s.ScheduledStart, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// LateAssessment is computed locally from the selected shift and the clock;
// it is attached to a check-in submission only when IsLate is true, in which
// case ReasonText must be non-empty.
type LateAssessment struct {
	IsLate      bool   `json:"isLate"`
	MinutesLate int    `json:"minutesLate"`
	ReasonText  string `json:"reasonText,omitempty"`
}

// AttendanceResult is what the remote service returns for a settled
// submission. IsValidLocation is a display flag only, never a gate.
type AttendanceResult struct {
	AttendanceID    string      `json:"attendanceId"`
	Action          ClockAction `json:"action,omitempty"`
	IsValidLocation bool        `json:"isValidLocation"`
	CheckTime       time.Time   `json:"checkTime"`
}
