package core

import (
	"context"

	"attendance.agent/internal/core/model"
	"attendance.agent/internal/ports/messaging"
	"attendance.agent/internal/ports/remote"
	"attendance.agent/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Submitter assembles a validated action session into a single submission
// and manages the request/response/error cycle. There is no automatic
// retry: each submission carries a fresh, time-sensitive position/evidence
// pair that would be stale by the time a retry ran, so failures surface to
// the user who resubmits manually.
type Submitter struct {
	client  remote.Client
	tracker *StatusTracker
	reviews messaging.ReviewProducer // optional, nil disables review events
	siteID  int64
}

// NewSubmitter wires the submitter to the remote service, the status
// tracker it reconciles, and an optional review-event producer.
func NewSubmitter(client remote.Client, tracker *StatusTracker, reviews messaging.ReviewProducer, siteID int64) *Submitter {
	return &Submitter{
		client:  client,
		tracker: tracker,
		reviews: reviews,
		siteID:  siteID,
	}
}

// Submit runs the client-side guards and, only if all pass, dispatches the
// single network request. Guard failures never reach the wire. On success
// the tracker transitions and the session settles for good; on failure the
// session's artifacts are discarded and the caller re-acquires them before
// trying again.
func (s *Submitter) Submit(ctx context.Context, session *ActionSession) (*model.AttendanceResult, error) {
	if err := session.begin(); err != nil {
		return nil, err
	}

	sample, evidence, late, shiftID := session.snapshot()

	if err := s.guard(session.Action(), sample, evidence, late); err != nil {
		session.settle(false)
		return nil, err
	}

	ctx = telemetry.WithAttemptID(ctx, session.AttemptID())

	result, err := s.dispatch(ctx, session, sample, evidence, late, shiftID)
	if err != nil {
		session.settle(false)
		return nil, err
	}

	s.tracker.ApplyResult(session.Action(), result, *sample, s.siteID)
	s.publishReviewEvents(ctx, session, result, sample, late)
	session.settle(true)

	return result, nil
}

// SubmitQR submits a scanned code for implicit dispatch. The locally
// resolved action is what the UI showed the user; the service's answer is
// authoritative for the state transition. Artifacts are optional here, per
// the remote contract, but a sample is still attached whenever the scanning
// device produced one.
func (s *Submitter) SubmitQR(ctx context.Context, code string, role model.RoleType, resolved model.ClockAction, sample *model.PositionSample, evidence *model.EvidenceImage) (*model.AttendanceResult, error) {
	if evidence != nil && !evidence.IsImage() {
		return nil, ErrInvalidMediaType
	}

	attemptID := uuid.NewString()
	ctx = telemetry.WithAttemptID(ctx, attemptID)

	req := remote.QRActionRequest{
		AttemptID: attemptID,
		Code:      code,
		RoleType:  role,
		Sample:    sample,
	}
	if evidence != nil {
		req.Evidence = &remote.EvidencePayload{
			Data:               evidence.Data,
			MIMEType:           evidence.MIMEType,
			CapturedFromCamera: evidence.CapturedFromCamera,
		}
	}

	res, err := s.client.SubmitQRAction(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.Action != resolved {
		log.Ctx(ctx).Warn().
			Str("resolved", string(resolved)).
			Str("applied", string(res.Action)).
			Msg("Service applied a different verb than the local resolver")
	}

	result := &model.AttendanceResult{
		AttendanceID:    res.AttendanceID,
		Action:          res.Action,
		IsValidLocation: res.IsValidLocation,
		CheckTime:       res.CheckTime,
	}

	applied := model.PositionSample{}
	if sample != nil {
		applied = *sample
	}
	s.tracker.ApplyResult(res.Action, result, applied, s.siteID)

	return result, nil
}

// guard enforces every rule the client owns: presence of location, presence
// of evidence, a reason on late check-ins, and status-aware gating against
// a second open record for the role.
func (s *Submitter) guard(action model.ClockAction, sample *model.PositionSample, evidence *model.EvidenceImage, late *model.LateAssessment) error {
	if sample == nil {
		return ErrMissingLocation
	}
	if evidence == nil {
		return ErrMissingEvidence
	}
	if !evidence.IsImage() {
		return ErrInvalidMediaType
	}

	status, _ := s.tracker.Current()
	switch action {
	case model.ActionClockIn:
		if status == model.StatusOnShift {
			return ErrAlreadyOnShift
		}
		if late != nil && late.IsLate && late.ReasonText == "" {
			return ErrMissingLateReason
		}
	case model.ActionClockOut:
		if status != model.StatusOnShift {
			return ErrNotOnShift
		}
	}
	return nil
}

func (s *Submitter) dispatch(ctx context.Context, session *ActionSession, sample *model.PositionSample, evidence *model.EvidenceImage, late *model.LateAssessment, shiftID string) (*model.AttendanceResult, error) {
	payload := remote.EvidencePayload{
		Data:               evidence.Data,
		MIMEType:           evidence.MIMEType,
		CapturedFromCamera: evidence.CapturedFromCamera,
	}

	switch session.Action() {
	case model.ActionClockOut:
		attendanceID, ok := s.tracker.OpenAttendanceID()
		if !ok {
			return nil, ErrNotOnShift
		}
		result, err := s.client.SubmitCheckOut(ctx, remote.CheckOutRequest{
			AttemptID:    session.AttemptID(),
			AttendanceID: attendanceID,
			Sample:       *sample,
			Evidence:     payload,
		})
		if err != nil {
			return nil, err
		}
		result.Action = model.ActionClockOut
		return result, nil

	default:
		result, err := s.client.SubmitCheckIn(ctx, remote.CheckInRequest{
			AttemptID: session.AttemptID(),
			SiteID:    s.siteID,
			RoleType:  session.Role(),
			ShiftID:   shiftID,
			Sample:    *sample,
			Evidence:  payload,
			Late:      late,
		})
		if err != nil {
			return nil, err
		}
		result.Action = model.ActionClockIn
		return result, nil
	}
}

// publishReviewEvents queues flagged-location and late-arrival submissions
// for supervisor review. Publishing is best effort; the attendance action is
// already recorded, so failures are logged and swallowed.
func (s *Submitter) publishReviewEvents(ctx context.Context, session *ActionSession, result *model.AttendanceResult, sample *model.PositionSample, late *model.LateAssessment) {
	if s.reviews == nil {
		return
	}

	if !result.IsValidLocation {
		event := messaging.FlaggedLocationEvent{
			AttemptID:      session.AttemptID(),
			AttendanceID:   result.AttendanceID,
			SiteID:         s.siteID,
			RoleType:       session.Role(),
			Action:         string(session.Action()),
			Latitude:       sample.Latitude,
			Longitude:      sample.Longitude,
			AccuracyMeters: sample.AccuracyMeters,
			CheckTime:      result.CheckTime,
		}
		if err := s.reviews.PublishFlaggedLocation(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("attendance_id", result.AttendanceID).Msg("Failed to publish flagged-location event")
		}
	}

	if session.Action() == model.ActionClockIn && late != nil && late.IsLate {
		event := messaging.LateArrivalEvent{
			AttemptID:    session.AttemptID(),
			AttendanceID: result.AttendanceID,
			SiteID:       s.siteID,
			RoleType:     session.Role(),
			MinutesLate:  late.MinutesLate,
			Reason:       late.ReasonText,
			CheckTime:    result.CheckTime,
		}
		if err := s.reviews.PublishLateArrival(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("attendance_id", result.AttendanceID).Msg("Failed to publish late-arrival event")
		}
	}
}
