package core

import (
	"context"
	"testing"
	"time"

	"attendance.agent/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testShifts = []model.ShiftDefinition{
	{ID: "morning", Label: "Morning", ScheduledStart: "08:00"},
	{ID: "night", Label: "Night", ScheduledStart: "00:00"},
}

func newTestWorkflow(t *testing.T, client *memoryRemote) (*Workflow, *fakePositions, *fakeCameras, *StatusTracker) {
	t.Helper()

	tracker := NewStatusTracker(client, model.RoleSecurity)
	submitter := NewSubmitter(client, tracker, nil, 7)
	positions := &fakePositions{sample: model.PositionSample{Latitude: -6.2, Longitude: 106.816666, AccuracyMeters: 12}}
	cameras := &fakeCameras{}

	wf := NewWorkflow(tracker, submitter, positions, cameras, testShifts, 10)
	return wf, positions, cameras, tracker
}

func TestWorkflowRoundTrip(t *testing.T) {
	client := newMemoryRemote()
	wf, positions, cameras, tracker := newTestWorkflow(t, client)

	result, late, err := wf.ClockIn(context.Background(), "", "")
	require.NoError(t, err)
	assert.Nil(t, late)
	assert.NotEmpty(t, result.AttendanceID)

	status, open := tracker.Current()
	assert.Equal(t, model.StatusOnShift, status)
	require.NotNil(t, open)

	outResult, err := wf.ClockOut(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.AttendanceID, outResult.AttendanceID)

	// The remote source of truth agrees the round trip is closed.
	status, _, err = wf.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotClockedIn, status)

	// Each action acquired its own fresh artifacts.
	assert.Equal(t, 2, positions.samples)
	assert.True(t, cameras.allReleased())
}

func TestWorkflowSecondCheckInRejectedBeforeSubmission(t *testing.T) {
	client := newMemoryRemote()
	wf, _, _, _ := newTestWorkflow(t, client)

	_, _, err := wf.ClockIn(context.Background(), "", "")
	require.NoError(t, err)

	_, _, err = wf.ClockIn(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrAlreadyOnShift)
}

func TestWorkflowLateCheckInScenario(t *testing.T) {
	// role=SECURITY, siteId=7, grace=10, shift start 08:00, now 08:17.
	client := newMemoryRemote()
	wf, _, _, _ := newTestWorkflow(t, client)

	day := time.Date(2024, 3, 11, 8, 17, 0, 0, time.UTC)
	wf.now = func() time.Time { return day }

	assessment, err := wf.AssessShift("morning")
	require.NoError(t, err)
	assert.True(t, assessment.IsLate)
	assert.Equal(t, 17, assessment.MinutesLate)

	// Submission without a reason is blocked before any network call.
	_, late, err := wf.ClockIn(context.Background(), "morning", "")
	assert.ErrorIs(t, err, ErrMissingLateReason)
	require.NotNil(t, late)
	assert.True(t, late.IsLate)

	// With a reason, the submission proceeds and returns an id.
	result, late, err := wf.ClockIn(context.Background(), "morning", "traffic")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AttendanceID)
	assert.Equal(t, "traffic", late.ReasonText)
}

func TestWorkflowFlaggedLocationStillRecorded(t *testing.T) {
	client := newMemoryRemote()
	client.valid = false
	wf, _, _, _ := newTestWorkflow(t, client)

	result, _, err := wf.ClockIn(context.Background(), "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AttendanceID, "a flagged action is recorded, not blocked")
	assert.False(t, result.IsValidLocation)
}

func TestWorkflowUnknownShift(t *testing.T) {
	client := newMemoryRemote()
	wf, _, _, _ := newTestWorkflow(t, client)

	_, _, err := wf.ClockIn(context.Background(), "graveyard", "")
	assert.ErrorIs(t, err, ErrUnknownShift)

	_, err = wf.AssessShift("graveyard")
	assert.ErrorIs(t, err, ErrUnknownShift)
}

func TestWorkflowReleasesCameraOnCaptureFailure(t *testing.T) {
	client := newMemoryRemote()
	wf, _, cameras, _ := newTestWorkflow(t, client)
	cameras.captureErr = context.Canceled

	_, _, err := wf.ClockIn(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, cameras.allReleased(), "camera must be released on every exit path")

	status, _ := wf.tracker.Current()
	assert.Equal(t, model.StatusNotClockedIn, status)
}

func TestWorkflowLocationFailureStopsBeforeCapture(t *testing.T) {
	client := newMemoryRemote()
	wf, positions, cameras, _ := newTestWorkflow(t, client)
	positions.err = context.DeadlineExceeded

	_, _, err := wf.ClockIn(context.Background(), "", "")
	require.Error(t, err)
	assert.Zero(t, cameras.acquired, "no capture session should open without a fix")
}

func TestWorkflowScanRoundTrip(t *testing.T) {
	client := newMemoryRemote()
	wf, _, cameras, tracker := newTestWorkflow(t, client)

	result, err := wf.HandleScan(context.Background(), "site-7-gate-A")
	require.NoError(t, err)
	assert.Equal(t, model.ActionClockIn, result.Action)

	status, _ := tracker.Current()
	assert.Equal(t, model.StatusOnShift, status)

	result, err = wf.HandleScan(context.Background(), "site-7-gate-A")
	require.NoError(t, err)
	assert.Equal(t, model.ActionClockOut, result.Action)

	status, _ = tracker.Current()
	assert.Equal(t, model.StatusNotClockedIn, status)
	assert.True(t, cameras.allReleased())
}

func TestWorkflowScanInvalidCodeLeavesStateUntouched(t *testing.T) {
	client := newMemoryRemote()
	wf, _, _, tracker := newTestWorkflow(t, client)

	_, err := wf.HandleScan(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidScanCode)

	status, _ := tracker.Current()
	assert.Equal(t, model.StatusNotClockedIn, status)
}

func TestWorkflowScanWithoutCameraSource(t *testing.T) {
	client := newMemoryRemote()
	tracker := NewStatusTracker(client, model.RoleSecurity)
	submitter := NewSubmitter(client, tracker, nil, 7)
	positions := &fakePositions{sample: model.PositionSample{Latitude: -6.2, Longitude: 106.8}}

	// Kiosk wiring: no camera at all.
	wf := NewWorkflow(tracker, submitter, positions, nil, testShifts, 10)

	result, err := wf.HandleScan(context.Background(), "gate-A")
	require.NoError(t, err)
	assert.Equal(t, model.ActionClockIn, result.Action)
}
