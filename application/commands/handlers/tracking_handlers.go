package handlers

import (
	"context"
	"fmt"

	"seopilot-backend/application/commands"
	"seopilot-backend/application/commands/bus"
	"seopilot-backend/application/services"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
)

// SnapshotResult is the payload returned by the capture command: the
// snapshot plus whether this call created it.
type SnapshotResult struct {
	Snapshot *entities.TrackingSnapshot `json:"snapshot"`
	Created  bool                       `json:"created"`
}

// StartTrackingHandler handles tracking start commands
type StartTrackingHandler struct {
	trackingService *services.TrackingService
}

// NewStartTrackingHandler creates a new handler instance
func NewStartTrackingHandler(trackingService *services.TrackingService) *StartTrackingHandler {
	return &StartTrackingHandler{trackingService: trackingService}
}

// Handle executes the start tracking command
func (h *StartTrackingHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.StartTrackingCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	id, err := valueobjects.NewSuggestionIDFromString(c.SuggestionID)
	if err != nil {
		return nil, fmt.Errorf("invalid suggestion ID: %w", err)
	}
	return h.trackingService.StartTracking(ctx, id)
}

// CaptureSnapshotHandler handles daily snapshot commands
type CaptureSnapshotHandler struct {
	trackingService *services.TrackingService
}

// NewCaptureSnapshotHandler creates a new handler instance
func NewCaptureSnapshotHandler(trackingService *services.TrackingService) *CaptureSnapshotHandler {
	return &CaptureSnapshotHandler{trackingService: trackingService}
}

// Handle executes the capture snapshot command
func (h *CaptureSnapshotHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.CaptureSnapshotCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	id, err := valueobjects.NewSuggestionIDFromString(c.SuggestionID)
	if err != nil {
		return nil, fmt.Errorf("invalid suggestion ID: %w", err)
	}

	snapshot, created, err := h.trackingService.CaptureDailySnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SnapshotResult{Snapshot: snapshot, Created: created}, nil
}

// AnalyzeImpactHandler handles impact analysis commands
type AnalyzeImpactHandler struct {
	trackingService *services.TrackingService
}

// NewAnalyzeImpactHandler creates a new handler instance
func NewAnalyzeImpactHandler(trackingService *services.TrackingService) *AnalyzeImpactHandler {
	return &AnalyzeImpactHandler{trackingService: trackingService}
}

// Handle executes the analyze impact command
func (h *AnalyzeImpactHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.AnalyzeImpactCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	id, err := valueobjects.NewSuggestionIDFromString(c.SuggestionID)
	if err != nil {
		return nil, fmt.Errorf("invalid suggestion ID: %w", err)
	}
	return h.trackingService.AnalyzeImpact(ctx, id, c.AnalysisType)
}

// EndTrackingHandler handles tracking completion commands
type EndTrackingHandler struct {
	trackingService *services.TrackingService
}

// NewEndTrackingHandler creates a new handler instance
func NewEndTrackingHandler(trackingService *services.TrackingService) *EndTrackingHandler {
	return &EndTrackingHandler{trackingService: trackingService}
}

// Handle executes the end tracking command
func (h *EndTrackingHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.EndTrackingCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	id, err := valueobjects.NewSuggestionIDFromString(c.SuggestionID)
	if err != nil {
		return nil, fmt.Errorf("invalid suggestion ID: %w", err)
	}
	return h.trackingService.EndTracking(ctx, id, c.RunFinalAnalysis)
}

// AutoCompleteStaleHandler handles the stale tracking sweep command
type AutoCompleteStaleHandler struct {
	trackingService *services.TrackingService
}

// NewAutoCompleteStaleHandler creates a new handler instance
func NewAutoCompleteStaleHandler(trackingService *services.TrackingService) *AutoCompleteStaleHandler {
	return &AutoCompleteStaleHandler{trackingService: trackingService}
}

// Handle executes the sweep command and returns the completed count
func (h *AutoCompleteStaleHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.AutoCompleteStaleCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.trackingService.AutoCompleteStale(ctx, c.MaxDays)
}
