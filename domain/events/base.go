package events

import (
	"time"

	"seopilot-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Page Events

// PageReparented is raised when a page is moved under a new parent
type PageReparented struct {
	BaseEvent
	PageID      valueobjects.PageID   `json:"page_id"`
	DomainID    valueobjects.DomainID `json:"domain_id"`
	OldParentID *valueobjects.PageID  `json:"old_parent_id,omitempty"`
	NewParentID *valueobjects.PageID  `json:"new_parent_id,omitempty"`
	NewDepth    int                   `json:"new_depth"`
}

// NewPageReparented creates a PageReparented event
func NewPageReparented(pageID valueobjects.PageID, domainID valueobjects.DomainID, oldParent, newParent *valueobjects.PageID, newDepth int, timestamp time.Time) PageReparented {
	return PageReparented{
		BaseEvent: BaseEvent{
			AggregateID: pageID.String(),
			EventType:   "page.reparented",
			Timestamp:   timestamp,
			Version:     1,
		},
		PageID:      pageID,
		DomainID:    domainID,
		OldParentID: oldParent,
		NewParentID: newParent,
		NewDepth:    newDepth,
	}
}

// PagePositionPinned is raised when a page gets a manual canvas position
type PagePositionPinned struct {
	BaseEvent
	PageID   valueobjects.PageID   `json:"page_id"`
	Position valueobjects.Position `json:"position"`
}

// NewPagePositionPinned creates a PagePositionPinned event
func NewPagePositionPinned(pageID valueobjects.PageID, position valueobjects.Position, timestamp time.Time) PagePositionPinned {
	return PagePositionPinned{
		BaseEvent: BaseEvent{
			AggregateID: pageID.String(),
			EventType:   "page.position_pinned",
			Timestamp:   timestamp,
			Version:     1,
		},
		PageID:   pageID,
		Position: position,
	}
}

// PagePositionReleased is raised when a manual position is removed and
// the page returns to automatic layout.
type PagePositionReleased struct {
	BaseEvent
	PageID valueobjects.PageID `json:"page_id"`
}

// NewPagePositionReleased creates a PagePositionReleased event
func NewPagePositionReleased(pageID valueobjects.PageID, timestamp time.Time) PagePositionReleased {
	return PagePositionReleased{
		BaseEvent: BaseEvent{
			AggregateID: pageID.String(),
			EventType:   "page.position_released",
			Timestamp:   timestamp,
			Version:     1,
		},
		PageID: pageID,
	}
}

// Tracking Events

// TrackingStarted is raised when a suggestion enters the tracking state
type TrackingStarted struct {
	BaseEvent
	SuggestionID valueobjects.SuggestionID `json:"suggestion_id"`
	PageID       valueobjects.PageID       `json:"page_id"`
	Baseline     valueobjects.PageMetrics  `json:"baseline"`
}

// NewTrackingStarted creates a TrackingStarted event
func NewTrackingStarted(suggestionID valueobjects.SuggestionID, pageID valueobjects.PageID, baseline valueobjects.PageMetrics, timestamp time.Time) TrackingStarted {
	return TrackingStarted{
		BaseEvent: BaseEvent{
			AggregateID: suggestionID.String(),
			EventType:   "tracking.started",
			Timestamp:   timestamp,
			Version:     1,
		},
		SuggestionID: suggestionID,
		PageID:       pageID,
		Baseline:     baseline,
	}
}

// SnapshotCaptured is raised when a daily metrics snapshot is recorded
type SnapshotCaptured struct {
	BaseEvent
	SuggestionID valueobjects.SuggestionID `json:"suggestion_id"`
	SnapshotDate string                    `json:"snapshot_date"`
	DayNumber    int                       `json:"day_number"`
}

// NewSnapshotCaptured creates a SnapshotCaptured event
func NewSnapshotCaptured(suggestionID valueobjects.SuggestionID, snapshotDate string, dayNumber int, timestamp time.Time) SnapshotCaptured {
	return SnapshotCaptured{
		BaseEvent: BaseEvent{
			AggregateID: suggestionID.String(),
			EventType:   "tracking.snapshot_captured",
			Timestamp:   timestamp,
			Version:     1,
		},
		SuggestionID: suggestionID,
		SnapshotDate: snapshotDate,
		DayNumber:    dayNumber,
	}
}

// ImpactAnalyzed is raised when an impact analysis completes
type ImpactAnalyzed struct {
	BaseEvent
	SuggestionID  valueobjects.SuggestionID `json:"suggestion_id"`
	OverallEffect string                    `json:"overall_effect"`
	Effectiveness float64                   `json:"effectiveness"`
	Source        string                    `json:"source"`
}

// NewImpactAnalyzed creates an ImpactAnalyzed event
func NewImpactAnalyzed(suggestionID valueobjects.SuggestionID, overallEffect string, effectiveness float64, source string, timestamp time.Time) ImpactAnalyzed {
	return ImpactAnalyzed{
		BaseEvent: BaseEvent{
			AggregateID: suggestionID.String(),
			EventType:   "tracking.impact_analyzed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SuggestionID:  suggestionID,
		OverallEffect: overallEffect,
		Effectiveness: effectiveness,
		Source:        source,
	}
}

// TrackingCompleted is raised when a suggestion leaves the tracking state
type TrackingCompleted struct {
	BaseEvent
	SuggestionID valueobjects.SuggestionID `json:"suggestion_id"`
	TrackedDays  int                       `json:"tracked_days"`
	AutoClosed   bool                      `json:"auto_closed"`
}

// NewTrackingCompleted creates a TrackingCompleted event
func NewTrackingCompleted(suggestionID valueobjects.SuggestionID, trackedDays int, autoClosed bool, timestamp time.Time) TrackingCompleted {
	return TrackingCompleted{
		BaseEvent: BaseEvent{
			AggregateID: suggestionID.String(),
			EventType:   "tracking.completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SuggestionID: suggestionID,
		TrackedDays:  trackedDays,
		AutoClosed:   autoClosed,
	}
}
