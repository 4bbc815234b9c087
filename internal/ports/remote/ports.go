package remote

import (
	"context"
	"time"

	"attendance.agent/internal/core/model"
)

// EvidencePayload is the wire form of a captured photo. Data is base64
// encoded by encoding/json.
type EvidencePayload struct {
	Data               []byte `json:"data"`
	MIMEType           string `json:"mimeType"`
	CapturedFromCamera bool   `json:"capturedFromCamera"`
}

// CheckInRequest opens a new attendance record for a role at a site.
type CheckInRequest struct {
	AttemptID string                `json:"attemptId"`
	SiteID    int64                 `json:"siteId"`
	RoleType  model.RoleType        `json:"roleType"`
	ShiftID   string                `json:"shiftId,omitempty"`
	Sample    model.PositionSample  `json:"sample"`
	Evidence  EvidencePayload       `json:"evidence"`
	Late      *model.LateAssessment `json:"late,omitempty"`
}

// CheckOutRequest closes the open record identified by AttendanceID.
type CheckOutRequest struct {
	AttemptID    string               `json:"attemptId"`
	AttendanceID string               `json:"attendanceId"`
	Sample       model.PositionSample `json:"sample"`
	Evidence     EvidencePayload      `json:"evidence"`
}

// QRActionRequest submits a scanned code; the service resolves it to an
// implicit check-in or check-out. Sample and Evidence are attached when the
// scanning device has them.
type QRActionRequest struct {
	AttemptID string                `json:"attemptId"`
	Code      string                `json:"code"`
	RoleType  model.RoleType        `json:"roleType"`
	Sample    *model.PositionSample `json:"sample,omitempty"`
	Evidence  *EvidencePayload      `json:"evidence,omitempty"`
}

// QRActionResult reports which verb the service applied for a scanned code.
type QRActionResult struct {
	Action          model.ClockAction `json:"action"`
	AttendanceID    string            `json:"attendanceId"`
	IsValidLocation bool              `json:"isValidLocation"`
	CheckTime       time.Time         `json:"checkTime"`
}

// StatusSnapshot is the remote source of truth for a role's shift state.
type StatusSnapshot struct {
	Status     model.AttendanceStatus  `json:"status"`
	OpenRecord *model.AttendanceRecord `json:"openRecord,omitempty"`
}

// Client is the contract the workflow requires from the remote attendance
// service. Transport and framing are this package's concern; callers only
// see these four operations and the error types below.
type Client interface {
	SubmitCheckIn(ctx context.Context, req CheckInRequest) (*model.AttendanceResult, error)
	SubmitCheckOut(ctx context.Context, req CheckOutRequest) (*model.AttendanceResult, error)
	SubmitQRAction(ctx context.Context, req QRActionRequest) (*QRActionResult, error)
	FetchCurrentStatus(ctx context.Context, role model.RoleType) (*StatusSnapshot, error)
}
