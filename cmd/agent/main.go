// Entry point for the field attendance agent.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance.agent/internal/api"
	"attendance.agent/internal/api/handler"
	"attendance.agent/internal/config"
	"attendance.agent/internal/core"
	"attendance.agent/internal/core/model"
	"attendance.agent/internal/device"
	"attendance.agent/internal/device/camera"
	"attendance.agent/internal/device/location"
	"attendance.agent/internal/ports/messaging"
	"attendance.agent/internal/ports/remote"
	awsconfig "attendance.agent/pkg/aws"
	"attendance.agent/pkg/logger"
	"attendance.agent/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	role := model.RoleType(cfg.RoleType)
	if !role.Valid() {
		log.Fatal().Str("role", cfg.RoleType).Msg("Unknown role type")
	}

	shifts, err := config.LoadShifts(cfg.ShiftsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load shift definitions")
	}

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("attendance-agent", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// AWS SDK config for the supervisor review queue
	awsCfg, err := awsconfig.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}
	sqsClient := sqs.NewFromConfig(awsCfg)
	reviews := messaging.NewSQSProducer(sqsClient, cfg.ReviewSQSQueueURL)

	// Initialize dependencies
	remoteClient := remote.NewHTTPClient(cfg.AttendanceAPIURL)
	tracker := core.NewStatusTracker(remoteClient, role)
	submitter := core.NewSubmitter(remoteClient, tracker, reviews, cfg.SiteID)

	positions := device.PositionSource{
		Sampler: location.NewBridgeClient(cfg.LocationBridgeURL),
		Timeout: time.Duration(cfg.LocationTimeoutMillis) * time.Millisecond,
	}
	cameras := device.EvidenceSource{
		Capturer: camera.NewCapturer(cfg.CameraBridgeURL),
	}

	workflow := core.NewWorkflow(tracker, submitter, positions, cameras, shifts, cfg.GraceMinutes)

	// Setup router and server
	router := api.NewRouter(handler.NewAttendanceHandler(workflow))

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.EnrichContextWithLogger(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	h := otelhttp.NewHandler(loggerMiddleware(router), "agent")

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: h,
	}

	// Periodic status re-fetch so the display stays current even when the
	// user takes no action.
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	go refreshLoop(refreshCtx, tracker, time.Duration(cfg.StatusRefreshSeconds)*time.Second)

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("role", cfg.RoleType).Msg("Attendance agent starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down agent...")
	stopRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Agent forced to shutdown")
	}

	log.Info().Msg("Agent exiting")
}

// refreshLoop reconciles the cached status on a timer. Errors are already
// logged and absorbed by the tracker's fail-safe default.
func refreshLoop(ctx context.Context, tracker *core.StatusTracker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _, _ = tracker.Refresh(ctx)
		}
	}
}
