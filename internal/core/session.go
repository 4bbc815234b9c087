package core

import (
	"sync"

	"attendance.agent/internal/core/model"
	"github.com/google/uuid"
)

// ActionSession collects the artifacts for one attendance action and
// enforces the ordering rules around them: location and evidence may arrive
// in either order, both must be present before submission, and only one
// submission may be in flight at a time. Artifacts are scoped to a single
// attempt; they are discarded once the attempt settles, success or failure,
// so a retry always carries freshly acquired ones.
type ActionSession struct {
	mu        sync.Mutex
	attemptID string
	action    model.ClockAction
	role      model.RoleType
	shiftID   string
	sample    *model.PositionSample
	evidence  *model.EvidenceImage
	late      *model.LateAssessment
	inFlight  bool
	settled   bool
}

// NewActionSession starts a session for one action instance.
func NewActionSession(action model.ClockAction, role model.RoleType) *ActionSession {
	return &ActionSession{
		attemptID: uuid.NewString(),
		action:    action,
		role:      role,
	}
}

// AttemptID is the client-generated correlation id for this attempt.
func (s *ActionSession) AttemptID() string { return s.attemptID }

// Action returns the session's verb.
func (s *ActionSession) Action() model.ClockAction { return s.action }

// Role returns the session's role.
func (s *ActionSession) Role() model.RoleType { return s.role }

// SetShift tags the session with the selected shift.
func (s *ActionSession) SetShift(shiftID string) {
	s.mu.Lock()
	s.shiftID = shiftID
	s.mu.Unlock()
}

// AttachSample stores a freshly acquired position sample.
func (s *ActionSession) AttachSample(sample *model.PositionSample) {
	s.mu.Lock()
	s.sample = sample
	s.mu.Unlock()
}

// AttachEvidence stores the captured photo.
func (s *ActionSession) AttachEvidence(evidence *model.EvidenceImage) {
	s.mu.Lock()
	s.evidence = evidence
	s.mu.Unlock()
}

// AttachLateAssessment stores the lateness verdict for a check-in.
func (s *ActionSession) AttachLateAssessment(late *model.LateAssessment) {
	s.mu.Lock()
	s.late = late
	s.mu.Unlock()
}

// Ready reports whether both artifacts are present.
func (s *ActionSession) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample != nil && s.evidence != nil
}

// begin marks the session in flight, refusing when a prior submission has
// not settled or the session already completed. A new attempt id is issued
// for every begin so retries after a failure stay distinguishable.
func (s *ActionSession) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled {
		return ErrSessionSettled
	}
	if s.inFlight {
		return ErrSubmissionInFlight
	}
	s.inFlight = true
	return nil
}

// settle closes out an attempt. Artifacts are dropped in both outcomes, and
// a successful session refuses any further submission.
func (s *ActionSession) settle(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.sample = nil
	s.evidence = nil
	s.late = nil
	if success {
		s.settled = true
	} else {
		s.attemptID = uuid.NewString()
	}
}

// snapshot returns the artifacts for submission under the lock.
func (s *ActionSession) snapshot() (*model.PositionSample, *model.EvidenceImage, *model.LateAssessment, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample, s.evidence, s.late, s.shiftID
}
