package entities

import (
	"time"

	"seopilot-backend/domain/core/valueobjects"
)

// TrackingSnapshot is one day's metrics reading for a tracked suggestion.
// Snapshots are immutable once written; the storage layer enforces at
// most one per suggestion per calendar day.
type TrackingSnapshot struct {
	SuggestionID valueobjects.SuggestionID `json:"suggestion_id"`
	PageID       valueobjects.PageID       `json:"page_id"`
	SnapshotDate string                    `json:"snapshot_date"` // yyyy-mm-dd, UTC
	DayNumber    int                       `json:"day_number"`    // days since tracking start, 0-based
	Metrics      valueobjects.PageMetrics  `json:"metrics"`
	CapturedAt   time.Time                 `json:"captured_at"`
}

// NewTrackingSnapshot creates a snapshot record for the given UTC day
func NewTrackingSnapshot(suggestionID valueobjects.SuggestionID, pageID valueobjects.PageID, day time.Time, dayNumber int, metrics valueobjects.PageMetrics, capturedAt time.Time) TrackingSnapshot {
	return TrackingSnapshot{
		SuggestionID: suggestionID,
		PageID:       pageID,
		SnapshotDate: day.UTC().Format("2006-01-02"),
		DayNumber:    dayNumber,
		Metrics:      metrics,
		CapturedAt:   capturedAt,
	}
}

// Analysis run kinds recorded on the effectiveness log
const (
	AnalysisManual    = "manual"    // requested through the API
	AnalysisScheduled = "scheduled" // sweep worker
	AnalysisFinal     = "final"     // run as part of ending tracking
)

// EffectivenessLog is an append-only record of one impact analysis run.
// The timeline endpoint replays these alongside snapshots.
type EffectivenessLog struct {
	SuggestionID  valueobjects.SuggestionID   `json:"suggestion_id"`
	AnalysisType  string                      `json:"analysis_type"`
	AnalyzedAt    time.Time                   `json:"analyzed_at"`
	Effectiveness float64                     `json:"effectiveness"`
	Trend         string                      `json:"trend"`
	Analysis      valueobjects.AnalysisResult `json:"analysis"`
	Metrics       valueobjects.PageMetrics    `json:"metrics"`
}

// NewEffectivenessLog creates an analysis log record
func NewEffectivenessLog(suggestionID valueobjects.SuggestionID, analysisType string, analyzedAt time.Time, effectiveness float64, trend string, analysis valueobjects.AnalysisResult, metrics valueobjects.PageMetrics) EffectivenessLog {
	if analysisType == "" {
		analysisType = AnalysisManual
	}
	return EffectivenessLog{
		SuggestionID:  suggestionID,
		AnalysisType:  analysisType,
		AnalyzedAt:    analyzedAt,
		Effectiveness: effectiveness,
		Trend:         trend,
		Analysis:      analysis,
		Metrics:       metrics,
	}
}
