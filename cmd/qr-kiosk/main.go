// Entry point for the QR kiosk: a continuous scanner that turns badge
// scans into implicit clock-in/clock-out actions.
package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance.agent/internal/config"
	"attendance.agent/internal/core"
	"attendance.agent/internal/core/model"
	"attendance.agent/internal/device"
	"attendance.agent/internal/device/location"
	"attendance.agent/internal/ports/messaging"
	"attendance.agent/internal/ports/remote"
	awsconfig "attendance.agent/pkg/aws"
	"attendance.agent/pkg/logger"
	"attendance.agent/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	role := model.RoleType(cfg.RoleType)
	if !role.Valid() {
		log.Fatal().Str("role", cfg.RoleType).Msg("Unknown role type")
	}

	shifts, err := config.LoadShifts(cfg.ShiftsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load shift definitions")
	}

	shutdownTracer, err := telemetry.InitTracer("attendance-qr-kiosk", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	awsCfg, err := awsconfig.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}
	reviews := messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.ReviewSQSQueueURL)

	remoteClient := remote.NewHTTPClient(cfg.AttendanceAPIURL)
	tracker := core.NewStatusTracker(remoteClient, role)
	submitter := core.NewSubmitter(remoteClient, tracker, reviews, cfg.SiteID)

	positions := device.PositionSource{
		Sampler: location.NewBridgeClient(cfg.LocationBridgeURL),
		Timeout: time.Duration(cfg.LocationTimeoutMillis) * time.Millisecond,
	}

	// The kiosk has no camera bridge wired; QR actions go out without
	// photo evidence, which the remote contract allows.
	workflow := core.NewWorkflow(tracker, submitter, positions, nil, shifts, cfg.GraceMinutes)

	stream := core.NewScanStream(8)
	ctx, cancel := context.WithCancel(context.Background())

	// The scanner bridge writes one decoded frame per line on stdin.
	go feedFrames(stream)
	go dispatchScans(ctx, workflow, stream)

	log.Info().Str("role", cfg.RoleType).Msg("QR kiosk started. Waiting for scans...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down kiosk...")
	cancel()
	log.Info().Msg("Kiosk exited gracefully")
}

// feedFrames pushes raw scanner frames into the stream, which drops decode
// noise and repeated frames of the same code on its own.
func feedFrames(stream *core.ScanStream) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		stream.Offer(scanner.Text())
	}
}

// dispatchScans runs one attendance action per distinct code, then restarts
// the stream so the same badge can clock back out later.
func dispatchScans(ctx context.Context, workflow *core.Workflow, stream *core.ScanStream) {
	for {
		select {
		case <-ctx.Done():
			return
		case code := <-stream.Codes():
			result, err := workflow.HandleScan(ctx, code)
			if err != nil {
				log.Error().Err(err).Msg("Scan action failed")
			} else {
				log.Info().
					Str("action", string(result.Action)).
					Str("attendance_id", result.AttendanceID).
					Bool("valid_location", result.IsValidLocation).
					Msg("Scan action recorded")
			}
			stream.Restart()
		}
	}
}
