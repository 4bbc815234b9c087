package messaging

import (
	"time"

	"attendance.agent/internal/core/model"
)

// FlaggedLocationEvent is published when a submission settles with an
// out-of-geofence verdict. The action is already recorded; the event only
// queues it for supervisor review.
type FlaggedLocationEvent struct {
	AttemptID      string         `json:"attemptId"`
	AttendanceID   string         `json:"attendanceId"`
	SiteID         int64          `json:"siteId"`
	RoleType       model.RoleType `json:"roleType"`
	Action         string         `json:"action"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	AccuracyMeters float64        `json:"accuracyMeters"`
	CheckTime      time.Time      `json:"checkTime"`
}

// LateArrivalEvent is published when a late check-in settles successfully.
type LateArrivalEvent struct {
	AttemptID    string         `json:"attemptId"`
	AttendanceID string         `json:"attendanceId"`
	SiteID       int64          `json:"siteId"`
	RoleType     model.RoleType `json:"roleType"`
	MinutesLate  int            `json:"minutesLate"`
	Reason       string         `json:"reason"`
	CheckTime    time.Time      `json:"checkTime"`
}
