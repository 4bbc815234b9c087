package core

import (
	"time"

	"attendance.agent/internal/core/model"
)

// AssessLateness computes how late an arrival at now is against the shift's
// scheduled start, reapplied to today's calendar date. Minutes are rounded
// to the nearest whole minute; an arrival exactly at the grace boundary is
// not late. Early arrivals yield a negative minute count and are never late.
func AssessLateness(shift model.ShiftDefinition, now time.Time, graceMinutes int) (model.LateAssessment, error) {
	start, err := shift.StartOn(now)
	if err != nil {
		return model.LateAssessment{}, err
	}

	minutes := int(now.Sub(start).Round(time.Minute) / time.Minute)

	return model.LateAssessment{
		IsLate:      minutes > graceMinutes,
		MinutesLate: minutes,
	}, nil
}
