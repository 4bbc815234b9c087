package core

import (
	"context"
	"time"

	"attendance.agent/internal/core/model"
	"github.com/rs/zerolog/log"
)

// PositionSource yields one fresh position fix per call. The wiring layer
// binds this to the sensor bridge with max-age zero so no cached fix ever
// reaches a submission.
type PositionSource interface {
	Sample(ctx context.Context) (*model.PositionSample, error)
}

// EvidenceSession is a scoped ownership of the camera. Release must be
// called on every exit path and is idempotent.
type EvidenceSession interface {
	Capture(ctx context.Context) (*model.EvidenceImage, error)
	Release()
}

// EvidenceSource hands out exclusive capture sessions.
type EvidenceSource interface {
	Acquire(ctx context.Context) (EvidenceSession, error)
}

// Workflow drives one role's attendance actions end to end: status
// reconciliation, artifact acquisition, lateness assessment, QR dispatch and
// submission. It is the explicit state machine the presentation layer sits
// on top of; nothing here depends on how the UI renders it.
type Workflow struct {
	tracker   *StatusTracker
	submitter *Submitter
	positions PositionSource
	cameras   EvidenceSource
	shifts    []model.ShiftDefinition
	grace     int
	now       func() time.Time
}

// NewWorkflow wires a workflow for one role.
func NewWorkflow(tracker *StatusTracker, submitter *Submitter, positions PositionSource, cameras EvidenceSource, shifts []model.ShiftDefinition, graceMinutes int) *Workflow {
	return &Workflow{
		tracker:   tracker,
		submitter: submitter,
		positions: positions,
		cameras:   cameras,
		shifts:    shifts,
		grace:     graceMinutes,
		now:       time.Now,
	}
}

// Status reconciles with the remote service and returns the result. The
// error, if any, accompanies the fail-safe NOT_CLOCKED_IN snapshot rather
// than replacing it.
func (w *Workflow) Status(ctx context.Context) (model.AttendanceStatus, *model.AttendanceRecord, error) {
	return w.tracker.Refresh(ctx)
}

// Shifts returns the configured shift definitions.
func (w *Workflow) Shifts() []model.ShiftDefinition {
	return w.shifts
}

// AssessShift computes the lateness verdict for checking in to shiftID
// right now. Pure local computation; no network involved.
func (w *Workflow) AssessShift(shiftID string) (model.LateAssessment, error) {
	shift, ok := w.findShift(shiftID)
	if !ok {
		return model.LateAssessment{}, ErrUnknownShift
	}
	return AssessLateness(shift, w.now(), w.grace)
}

// ClockIn runs the full check-in sequence: reconcile status, assess
// lateness for the selected shift, acquire a fresh fix and a photo, then
// submit once. Any failure surfaces to the caller with the action intact
// for retry.
func (w *Workflow) ClockIn(ctx context.Context, shiftID, lateReason string) (*model.AttendanceResult, *model.LateAssessment, error) {
	// Refresh failures fall through: the tracker resolves fail-safe to
	// NOT_CLOCKED_IN and the check-in proceeds.
	if _, _, err := w.tracker.Refresh(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Proceeding with check-in despite status fetch failure")
	}

	session := NewActionSession(model.ActionClockIn, w.tracker.Role())

	var assessment *model.LateAssessment
	if shiftID != "" {
		shift, ok := w.findShift(shiftID)
		if !ok {
			return nil, nil, ErrUnknownShift
		}
		a, err := AssessLateness(shift, w.now(), w.grace)
		if err != nil {
			return nil, nil, err
		}
		a.ReasonText = lateReason
		assessment = &a
		session.SetShift(shiftID)
		session.AttachLateAssessment(assessment)
	}

	if err := w.acquireArtifacts(ctx, session); err != nil {
		return nil, assessment, err
	}

	result, err := w.submitter.Submit(ctx, session)
	return result, assessment, err
}

// ClockOut closes the open record for the role, with the same fresh
// artifact requirements as a check-in.
func (w *Workflow) ClockOut(ctx context.Context) (*model.AttendanceResult, error) {
	if _, _, err := w.tracker.Refresh(ctx); err != nil {
		// The fail-safe default will make the submitter's gating reject
		// the check-out; surface the fetch error instead of a confusing
		// "not on shift".
		return nil, err
	}

	session := NewActionSession(model.ActionClockOut, w.tracker.Role())

	if err := w.acquireArtifacts(ctx, session); err != nil {
		return nil, err
	}

	return w.submitter.Submit(ctx, session)
}

// HandleScan resolves a scanned code into an implicit action and submits
// it. Position and evidence travel along when the scanning device can
// provide them; the remote service validates the code itself.
func (w *Workflow) HandleScan(ctx context.Context, code string) (*model.AttendanceResult, error) {
	status, _, err := w.tracker.Refresh(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Scan proceeding with fail-safe status")
	}

	action, err := ResolveScan(code, status)
	if err != nil {
		return nil, err
	}

	var sample *model.PositionSample
	if w.positions != nil {
		if sample, err = w.positions.Sample(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Scan submitted without position sample")
			sample = nil
		}
	}

	var evidence *model.EvidenceImage
	if w.cameras != nil {
		evidence = w.captureBestEffort(ctx)
	}

	return w.submitter.SubmitQR(ctx, code, w.tracker.Role(), action, sample, evidence)
}

// acquireArtifacts runs the two suspension points of an action: location
// sampling and photo capture. Either order would satisfy the workflow; the
// fix is taken first because it is the cheaper acquisition to throw away
// when the capture UI is dismissed.
func (w *Workflow) acquireArtifacts(ctx context.Context, session *ActionSession) error {
	sample, err := w.positions.Sample(ctx)
	if err != nil {
		return err
	}
	session.AttachSample(sample)

	capture, err := w.cameras.Acquire(ctx)
	if err != nil {
		return err
	}
	defer capture.Release()

	evidence, err := capture.Capture(ctx)
	if err != nil {
		return err
	}
	session.AttachEvidence(evidence)

	// Hand the camera back before the network call; a submission must
	// never hold the device.
	capture.Release()
	return nil
}

// captureBestEffort grabs a photo for a QR action when the camera is free,
// and quietly goes without one when it is not.
func (w *Workflow) captureBestEffort(ctx context.Context) *model.EvidenceImage {
	capture, err := w.cameras.Acquire(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Scan submitted without photo evidence")
		return nil
	}
	defer capture.Release()

	evidence, err := capture.Capture(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Scan submitted without photo evidence")
		return nil
	}
	return evidence
}

func (w *Workflow) findShift(shiftID string) (model.ShiftDefinition, bool) {
	for _, s := range w.shifts {
		if s.ID == shiftID {
			return s, true
		}
	}
	return model.ShiftDefinition{}, false
}
