package commands

import "errors"

// StartTrackingCommand begins observing an applied suggestion
type StartTrackingCommand struct {
	SuggestionID string `json:"suggestion_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd StartTrackingCommand) Validate() error {
	if cmd.SuggestionID == "" {
		return errors.New("suggestion ID is required")
	}
	return nil
}

// CaptureSnapshotCommand records today's metrics for a tracking suggestion
type CaptureSnapshotCommand struct {
	SuggestionID string `json:"suggestion_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd CaptureSnapshotCommand) Validate() error {
	if cmd.SuggestionID == "" {
		return errors.New("suggestion ID is required")
	}
	return nil
}

// AnalyzeImpactCommand runs an impact analysis for a suggestion.
// AnalysisType labels the run (manual, scheduled, final); empty means manual.
type AnalyzeImpactCommand struct {
	SuggestionID string `json:"suggestion_id" validate:"required,uuid"`
	AnalysisType string `json:"analysis_type,omitempty" validate:"omitempty,oneof=manual scheduled final"`
}

// Validate validates the command
func (cmd AnalyzeImpactCommand) Validate() error {
	if cmd.SuggestionID == "" {
		return errors.New("suggestion ID is required")
	}
	switch cmd.AnalysisType {
	case "", "manual", "scheduled", "final":
		return nil
	}
	return errors.New("analysis type must be manual, scheduled or final")
}

// EndTrackingCommand completes tracking for a suggestion, optionally
// recording a final impact analysis first.
type EndTrackingCommand struct {
	SuggestionID     string `json:"suggestion_id" validate:"required,uuid"`
	RunFinalAnalysis bool   `json:"run_final_analysis,omitempty"`
}

// Validate validates the command
func (cmd EndTrackingCommand) Validate() error {
	if cmd.SuggestionID == "" {
		return errors.New("suggestion ID is required")
	}
	return nil
}

// AutoCompleteStaleCommand ends tracking for suggestions past the
// observation window. MaxDays overrides the configured window when > 0.
type AutoCompleteStaleCommand struct {
	MaxDays int `json:"max_days,omitempty" validate:"omitempty,min=1"`
}

// Validate validates the command
func (cmd AutoCompleteStaleCommand) Validate() error {
	if cmd.MaxDays < 0 {
		return errors.New("max days must be positive")
	}
	return nil
}
