package core

import (
	"testing"

	"attendance.agent/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveScan(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		status     model.AttendanceStatus
		wantAction model.ClockAction
		wantErr    error
	}{
		{
			name:       "not clocked in resolves to clock-in",
			code:       "site-7-gate-A",
			status:     model.StatusNotClockedIn,
			wantAction: model.ActionClockIn,
		},
		{
			name:       "on shift resolves to clock-out",
			code:       "site-7-gate-A",
			status:     model.StatusOnShift,
			wantAction: model.ActionClockOut,
		},
		{
			name:       "arbitrary token still dispatches",
			code:       "eyJzaXRlIjo3fQ==",
			status:     model.StatusNotClockedIn,
			wantAction: model.ActionClockIn,
		},
		{
			name:    "empty code is invalid",
			code:    "",
			status:  model.StatusNotClockedIn,
			wantErr: ErrInvalidScanCode,
		},
		{
			name:    "whitespace only is invalid",
			code:    "   \t ",
			status:  model.StatusOnShift,
			wantErr: ErrInvalidScanCode,
		},
		{
			name:    "decode garbage with control bytes is invalid",
			code:    "gate\x00\x01A",
			status:  model.StatusOnShift,
			wantErr: ErrInvalidScanCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ResolveScan(tt.code, tt.status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, action)
		})
	}
}

func TestScanStreamFiltersNoiseAndDuplicates(t *testing.T) {
	stream := NewScanStream(4)

	assert.False(t, stream.Offer(""), "empty frame should be dropped")
	assert.False(t, stream.Offer("\x02partial"), "control bytes should be dropped")

	assert.True(t, stream.Offer("badge-42"))
	// Same code on every frame while the badge is in view.
	assert.False(t, stream.Offer("badge-42"))
	assert.False(t, stream.Offer("  badge-42  "))

	assert.True(t, stream.Offer("badge-43"), "a distinct code passes through")

	codes := stream.Codes()
	assert.Equal(t, "badge-42", <-codes)
	assert.Equal(t, "badge-43", <-codes)
	assert.Empty(t, codes)
}

func TestScanStreamRestartAllowsSameCodeAgain(t *testing.T) {
	stream := NewScanStream(4)

	require.True(t, stream.Offer("badge-42"))
	require.False(t, stream.Offer("badge-42"))

	stream.Restart()
	assert.True(t, stream.Offer("badge-42"), "restart forgets the last code")
}

func TestScanStreamDropsWhenConsumerBehind(t *testing.T) {
	stream := NewScanStream(1)

	require.True(t, stream.Offer("badge-1"))
	// Buffer full: the frame is dropped, not queued, and the last-seen
	// marker is not advanced so the scanner's redelivery gets through.
	assert.False(t, stream.Offer("badge-2"))

	assert.Equal(t, "badge-1", <-stream.Codes())
	assert.True(t, stream.Offer("badge-2"))
}
