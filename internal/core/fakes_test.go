package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"attendance.agent/internal/core/model"
	"attendance.agent/internal/ports/messaging"
	"attendance.agent/internal/ports/remote"
)

// scriptedRemote answers with whatever the test configured and records what
// it was asked.
type scriptedRemote struct {
	mu sync.Mutex

	statusSnap  *remote.StatusSnapshot
	statusErr   error
	statusCalls int

	checkInResult *model.AttendanceResult
	checkInErr    error
	checkInCalls  int
	lastCheckIn   remote.CheckInRequest

	checkOutResult *model.AttendanceResult
	checkOutErr    error
	checkOutCalls  int
	lastCheckOut   remote.CheckOutRequest

	qrResult *remote.QRActionResult
	qrErr    error
	qrCalls  int
	lastQR   remote.QRActionRequest
}

func (f *scriptedRemote) SubmitCheckIn(ctx context.Context, req remote.CheckInRequest) (*model.AttendanceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkInCalls++
	f.lastCheckIn = req
	if f.checkInErr != nil {
		return nil, f.checkInErr
	}
	return f.checkInResult, nil
}

func (f *scriptedRemote) SubmitCheckOut(ctx context.Context, req remote.CheckOutRequest) (*model.AttendanceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkOutCalls++
	f.lastCheckOut = req
	if f.checkOutErr != nil {
		return nil, f.checkOutErr
	}
	return f.checkOutResult, nil
}

func (f *scriptedRemote) SubmitQRAction(ctx context.Context, req remote.QRActionRequest) (*remote.QRActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qrCalls++
	f.lastQR = req
	if f.qrErr != nil {
		return nil, f.qrErr
	}
	return f.qrResult, nil
}

func (f *scriptedRemote) FetchCurrentStatus(ctx context.Context, role model.RoleType) (*remote.StatusSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if f.statusSnap == nil {
		return &remote.StatusSnapshot{Status: model.StatusNotClockedIn}, nil
	}
	return f.statusSnap, nil
}

// memoryRemote behaves like the real service: one open record per role,
// created by check-in, closed by check-out.
type memoryRemote struct {
	mu    sync.Mutex
	open  map[model.RoleType]*model.AttendanceRecord
	seq   int
	valid bool // geofence verdict handed back on every submission
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{open: make(map[model.RoleType]*model.AttendanceRecord), valid: true}
}

func (m *memoryRemote) SubmitCheckIn(ctx context.Context, req remote.CheckInRequest) (*model.AttendanceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.open[req.RoleType]; exists {
		return nil, &remote.RejectionError{StatusCode: 409, Message: "an open attendance record already exists for this role"}
	}

	m.seq++
	now := time.Now().UTC()
	rec := &model.AttendanceRecord{
		ID:       fmt.Sprintf("att-%d", m.seq),
		SiteID:   req.SiteID,
		RoleType: req.RoleType,
		ShiftID:  req.ShiftID,
		CheckIn:  model.CheckEvent{Timestamp: now, Sample: req.Sample, IsValidLocation: m.valid},
	}
	m.open[req.RoleType] = rec
	return &model.AttendanceResult{AttendanceID: rec.ID, IsValidLocation: m.valid, CheckTime: now}, nil
}

func (m *memoryRemote) SubmitCheckOut(ctx context.Context, req remote.CheckOutRequest) (*model.AttendanceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for role, rec := range m.open {
		if rec.ID == req.AttendanceID {
			now := time.Now().UTC()
			delete(m.open, role)
			return &model.AttendanceResult{AttendanceID: rec.ID, IsValidLocation: m.valid, CheckTime: now}, nil
		}
	}
	return nil, &remote.RejectionError{StatusCode: 404, Message: "no open attendance record with that id"}
}

func (m *memoryRemote) SubmitQRAction(ctx context.Context, req remote.QRActionRequest) (*remote.QRActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()

	if rec, exists := m.open[req.RoleType]; exists {
		delete(m.open, req.RoleType)
		return &remote.QRActionResult{Action: model.ActionClockOut, AttendanceID: rec.ID, IsValidLocation: m.valid, CheckTime: now}, nil
	}

	m.seq++
	rec := &model.AttendanceRecord{
		ID:       fmt.Sprintf("att-%d", m.seq),
		RoleType: req.RoleType,
		CheckIn:  model.CheckEvent{Timestamp: now, IsValidLocation: m.valid},
	}
	m.open[req.RoleType] = rec
	return &remote.QRActionResult{Action: model.ActionClockIn, AttendanceID: rec.ID, IsValidLocation: m.valid, CheckTime: now}, nil
}

func (m *memoryRemote) FetchCurrentStatus(ctx context.Context, role model.RoleType) (*remote.StatusSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, exists := m.open[role]; exists {
		return &remote.StatusSnapshot{Status: model.StatusOnShift, OpenRecord: rec}, nil
	}
	return &remote.StatusSnapshot{Status: model.StatusNotClockedIn}, nil
}

// recordingReviews captures published review events.
type recordingReviews struct {
	mu      sync.Mutex
	flagged []messaging.FlaggedLocationEvent
	late    []messaging.LateArrivalEvent
}

func (r *recordingReviews) PublishFlaggedLocation(ctx context.Context, event messaging.FlaggedLocationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flagged = append(r.flagged, event)
	return nil
}

func (r *recordingReviews) PublishLateArrival(ctx context.Context, event messaging.LateArrivalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.late = append(r.late, event)
	return nil
}

// fakePositions hands out a fixed sample, counting acquisitions.
type fakePositions struct {
	mu      sync.Mutex
	sample  model.PositionSample
	err     error
	samples int
}

func (f *fakePositions) Sample(ctx context.Context) (*model.PositionSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.samples++
	s := f.sample
	s.CapturedAt = time.Now()
	return &s, nil
}

// fakeCameras hands out sessions over a single fake camera, tracking that
// every acquired session was released.
type fakeCameras struct {
	mu         sync.Mutex
	captureErr error
	acquireErr error
	acquired   int
	released   int
}

func (f *fakeCameras) Acquire(ctx context.Context) (EvidenceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return &fakeSession{owner: f}, nil
}

func (f *fakeCameras) allReleased() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired == f.released
}

type fakeSession struct {
	owner *fakeCameras
	once  sync.Once
}

func (s *fakeSession) Capture(ctx context.Context) (*model.EvidenceImage, error) {
	s.owner.mu.Lock()
	err := s.owner.captureErr
	s.owner.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &model.EvidenceImage{
		Data:               []byte{0xFF, 0xD8, 0xFF, 0xE0},
		MIMEType:           "image/jpeg",
		CapturedFromCamera: true,
		CapturedAt:         time.Now(),
	}, nil
}

func (s *fakeSession) Release() {
	s.once.Do(func() {
		s.owner.mu.Lock()
		s.owner.released++
		s.owner.mu.Unlock()
	})
}
