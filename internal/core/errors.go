package core

import "errors"

// Client-side guard failures. All of these fire before any network call and
// leave the user able to retry the same action.
var (
	// ErrMissingLocation means no position sample was attached to the action.
	ErrMissingLocation = errors.New("no location sample acquired")
	// ErrMissingEvidence means no photo was attached to the action.
	ErrMissingEvidence = errors.New("no photo evidence captured")
	// ErrMissingLateReason blocks a late check-in until a reason is given.
	ErrMissingLateReason = errors.New("late arrival requires a reason")
	// ErrInvalidMediaType means the attached evidence is not an image.
	ErrInvalidMediaType = errors.New("evidence payload is not an image")
	// ErrInvalidScanCode means a scanned code could not be used for dispatch.
	ErrInvalidScanCode = errors.New("invalid scan code")
	// ErrAlreadyOnShift gates a second check-in for a role with an open record.
	ErrAlreadyOnShift = errors.New("already on shift for this role")
	// ErrNotOnShift gates a check-out when no record is open.
	ErrNotOnShift = errors.New("not currently on shift for this role")
	// ErrSubmissionInFlight means the session's submission has not settled yet.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrSessionSettled means the session already completed successfully.
	ErrSessionSettled = errors.New("action session already settled")
	// ErrUnknownShift means the selected shift id is not configured.
	ErrUnknownShift = errors.New("unknown shift")
)
