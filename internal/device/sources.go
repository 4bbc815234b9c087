// Package device adapts the sensor bridges to the workflow's source
// interfaces.
package device

import (
	"context"
	"time"

	"attendance.agent/internal/core"
	"attendance.agent/internal/core/model"
	"attendance.agent/internal/device/camera"
	"attendance.agent/internal/device/location"
)

// PositionSource binds a location sampler to the workflow with the
// freshness policy fixed: high accuracy, max age zero, so every call is a
// fresh physical read.
type PositionSource struct {
	Sampler location.Sampler
	Timeout time.Duration
}

func (p PositionSource) Sample(ctx context.Context) (*model.PositionSample, error) {
	return p.Sampler.Sample(ctx, location.Options{
		HighAccuracy: true,
		Timeout:      p.Timeout,
		MaxAge:       0,
	})
}

// EvidenceSource hands the capturer's exclusive sessions to the workflow.
type EvidenceSource struct {
	Capturer *camera.Capturer
}

func (e EvidenceSource) Acquire(ctx context.Context) (core.EvidenceSession, error) {
	return e.Capturer.Acquire(ctx)
}
