// Command tracker runs the scheduled tracking sweep: it captures the
// daily snapshot for every tracking suggestion, refreshes its impact
// analysis, and auto-completes suggestions past the observation window.
// It runs as a scheduled Lambda, or once and exits when run directly.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"seopilot-backend/domain/core/entities"
	"seopilot-backend/infrastructure/config"
	"seopilot-backend/infrastructure/di"
	pkgerrors "seopilot-backend/pkg/errors"
	"seopilot-backend/pkg/observability"
)

const sweepBatchSize = 200

var container *di.Container

func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// runSweep performs one full tracking pass
func runSweep(ctx context.Context) error {
	logger := container.Logger
	tracking := container.TrackingService
	start := time.Now()

	suggestions, err := container.SuggestionRepo.ListByStatus(ctx, entities.StatusTracking, sweepBatchSize)
	if err != nil {
		return err
	}

	var captured, analyzed, failed int
	for _, suggestion := range suggestions {
		id := suggestion.ID()

		if _, created, err := tracking.CaptureDailySnapshot(ctx, id); err != nil {
			failed++
			logger.Warn("Snapshot capture failed",
				zap.String("suggestionID", id.String()),
				zap.Error(err),
			)
			continue
		} else if created {
			captured++
		}

		if _, err := tracking.AnalyzeImpact(ctx, id, entities.AnalysisScheduled); err != nil {
			// Missing baselines and empty windows are expected early on
			if !pkgerrors.IsType(err, pkgerrors.ErrorTypeNoData) {
				failed++
				logger.Warn("Impact analysis failed",
					zap.String("suggestionID", id.String()),
					zap.Error(err),
				)
			}
			continue
		}
		analyzed++
	}

	completed, err := tracking.AutoCompleteStale(ctx, 0)
	if err != nil {
		logger.Error("Stale sweep failed", zap.Error(err))
	}

	logger.Info("Tracking sweep finished",
		zap.Int("tracking", len(suggestions)),
		zap.Int("snapshots", captured),
		zap.Int("analyses", analyzed),
		zap.Int("autoCompleted", completed),
		zap.Int("failures", failed),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}

// Handler is the Lambda entry point for scheduled invocations. The
// Lambda runtime owns the root trace segment; the sweep runs inside a
// subsegment so slow passes show up in X-Ray.
func Handler(ctx context.Context) error {
	if container.Config.EnableTracing {
		tracer := observability.NewTracer("seopilot-tracker")
		return tracer.TraceFunction(ctx, "sweep", runSweep)
	}
	return runSweep(ctx)
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(Handler)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := runSweep(ctx); err != nil {
		container.Logger.Fatal("Tracking sweep failed", zap.Error(err))
	}
	_ = container.Logger.Sync()
}
