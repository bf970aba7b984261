package entities

import (
	"time"

	"seopilot-backend/domain/core/valueobjects"
	"seopilot-backend/domain/events"
	pkgerrors "seopilot-backend/pkg/errors"
	"seopilot-backend/pkg/utils"
)

// SuggestionStatus represents the lifecycle state of an applied suggestion
type SuggestionStatus string

const (
	StatusApplied  SuggestionStatus = "applied"
	StatusTracking SuggestionStatus = "tracking"
	StatusTracked  SuggestionStatus = "tracked"
)

// Suggestion is an SEO recommendation that was applied to a page and is
// observed over time to judge its impact. Transitions are one-way:
// applied -> tracking -> tracked.
type Suggestion struct {
	id       valueobjects.SuggestionID
	domainID valueobjects.DomainID
	pageID   valueobjects.PageID
	pageURL  string

	kind        string
	description string
	status      SuggestionStatus

	baseline          *valueobjects.PageMetrics
	finalMetrics      *valueobjects.PageMetrics
	trackingStartedAt *time.Time
	trackingEndedAt   *time.Time
	trackedDays       int
	autoClosed        bool

	latestAnalysis *valueobjects.AnalysisResult
	effectiveness  *float64
	trend          string

	createdAt time.Time
	updatedAt time.Time
	version   int

	events []events.DomainEvent
}

// NewSuggestion creates an applied suggestion ready to be tracked. A
// zero pageID makes the suggestion domain-wide: tracking then reads
// aggregate site metrics, and pageURL carries the site URL instead of
// a page URL.
func NewSuggestion(domainID valueobjects.DomainID, pageID valueobjects.PageID, pageURL, kind, description string) (*Suggestion, error) {
	if domainID.IsZero() {
		return nil, pkgerrors.NewValidationError("domainID cannot be empty")
	}
	if utils.NormalizeURL(pageURL) == "" {
		return nil, pkgerrors.NewValidationError("pageURL cannot be empty")
	}

	now := time.Now()
	return &Suggestion{
		id:          valueobjects.NewSuggestionID(),
		domainID:    domainID,
		pageID:      pageID,
		pageURL:     utils.NormalizeURL(pageURL),
		kind:        kind,
		description: description,
		status:      StatusApplied,
		createdAt:   now,
		updatedAt:   now,
		version:     1,
		events:      []events.DomainEvent{},
	}, nil
}

// ReconstructSuggestion reconstructs a suggestion from repository data
func ReconstructSuggestion(
	id valueobjects.SuggestionID,
	domainID valueobjects.DomainID,
	pageID valueobjects.PageID,
	pageURL, kind, description string,
	status SuggestionStatus,
	baseline, finalMetrics *valueobjects.PageMetrics,
	trackingStartedAt, trackingEndedAt *time.Time,
	trackedDays int,
	autoClosed bool,
	latestAnalysis *valueobjects.AnalysisResult,
	effectiveness *float64,
	trend string,
	createdAt, updatedAt time.Time,
	version int,
) (*Suggestion, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("suggestion ID cannot be empty")
	}

	return &Suggestion{
		id:                id,
		domainID:          domainID,
		pageID:            pageID,
		pageURL:           pageURL,
		kind:              kind,
		description:       description,
		status:            status,
		baseline:          baseline,
		finalMetrics:      finalMetrics,
		trackingStartedAt: trackingStartedAt,
		trackingEndedAt:   trackingEndedAt,
		trackedDays:       trackedDays,
		autoClosed:        autoClosed,
		latestAnalysis:    latestAnalysis,
		effectiveness:     effectiveness,
		trend:             trend,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
		version:           version,
		events:            []events.DomainEvent{},
	}, nil
}

// ID returns the suggestion's unique identifier
func (s *Suggestion) ID() valueobjects.SuggestionID { return s.id }

// DomainID returns the site domain the suggestion belongs to
func (s *Suggestion) DomainID() valueobjects.DomainID { return s.domainID }

// PageID returns the page the suggestion was applied to. Zero for a
// domain-wide suggestion.
func (s *Suggestion) PageID() valueobjects.PageID { return s.pageID }

// HasPage reports whether the suggestion targets one specific page
func (s *Suggestion) HasPage() bool { return !s.pageID.IsZero() }

// PageURL returns the URL the suggestion was applied to: the page URL,
// or the site URL for a domain-wide suggestion.
func (s *Suggestion) PageURL() string { return s.pageURL }

// Kind returns the suggestion category (meta_title, content, schema, ...)
func (s *Suggestion) Kind() string { return s.kind }

// Description returns the human-readable suggestion text
func (s *Suggestion) Description() string { return s.description }

// Status returns the current lifecycle state
func (s *Suggestion) Status() SuggestionStatus { return s.status }

// IsTracking reports whether the suggestion is currently under observation
func (s *Suggestion) IsTracking() bool { return s.status == StatusTracking }

// Baseline returns the metrics captured when tracking started
func (s *Suggestion) Baseline() *valueobjects.PageMetrics { return s.baseline }

// FinalMetrics returns the metrics captured when tracking ended
func (s *Suggestion) FinalMetrics() *valueobjects.PageMetrics { return s.finalMetrics }

// TrackingStartedAt returns when tracking began, or nil
func (s *Suggestion) TrackingStartedAt() *time.Time { return s.trackingStartedAt }

// TrackingEndedAt returns when tracking finished, or nil
func (s *Suggestion) TrackingEndedAt() *time.Time { return s.trackingEndedAt }

// TrackedDays returns the number of days covered by snapshots so far
func (s *Suggestion) TrackedDays() int { return s.trackedDays }

// AutoClosed reports whether tracking was ended by the stale sweep
func (s *Suggestion) AutoClosed() bool { return s.autoClosed }

// LatestAnalysis returns the most recent impact analysis, or nil
func (s *Suggestion) LatestAnalysis() *valueobjects.AnalysisResult { return s.latestAnalysis }

// Effectiveness returns the latest effectiveness score, or nil
func (s *Suggestion) Effectiveness() *float64 { return s.effectiveness }

// Trend returns the latest trend direction label
func (s *Suggestion) Trend() string { return s.trend }

// Version returns the suggestion's version for optimistic locking
func (s *Suggestion) Version() int { return s.version }

// CreatedAt returns when the suggestion was created
func (s *Suggestion) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when the suggestion was last updated
func (s *Suggestion) UpdatedAt() time.Time { return s.updatedAt }

// StartTracking captures the baseline and moves the suggestion into the
// tracking state. Only an applied suggestion can start tracking.
func (s *Suggestion) StartTracking(baseline valueobjects.PageMetrics, now time.Time) error {
	if s.status != StatusApplied {
		return pkgerrors.NewInvalidStateError(string(s.status), "start tracking")
	}

	b := baseline
	s.baseline = &b
	s.trackingStartedAt = &now
	s.status = StatusTracking
	s.trackedDays = 0
	s.updatedAt = now
	s.version++

	s.addEvent(events.NewTrackingStarted(s.id, s.pageID, baseline, now))

	return nil
}

// RecordSnapshotDay advances the tracked-days counter after a snapshot.
// Counter only moves forward; a re-captured day is a no-op.
func (s *Suggestion) RecordSnapshotDay(dayNumber int, now time.Time) {
	if dayNumber <= s.trackedDays {
		return
	}
	s.trackedDays = dayNumber
	s.updatedAt = now
	s.version++
}

// SetLatestAnalysis stores the outcome of an impact analysis run
func (s *Suggestion) SetLatestAnalysis(result valueobjects.AnalysisResult, effectiveness float64, trend string, now time.Time) {
	r := result
	e := effectiveness
	s.latestAnalysis = &r
	s.effectiveness = &e
	s.trend = trend
	s.updatedAt = now
	s.version++

	s.addEvent(events.NewImpactAnalyzed(s.id, result.OverallEffect, effectiveness, result.Source, now))
}

// EndTracking captures the final reading and moves the suggestion into
// the tracked state. Only a tracking suggestion can end tracking.
func (s *Suggestion) EndTracking(final valueobjects.PageMetrics, autoClosed bool, now time.Time) error {
	if s.status != StatusTracking {
		return pkgerrors.NewInvalidStateError(string(s.status), "end tracking")
	}

	f := final
	s.finalMetrics = &f
	s.trackingEndedAt = &now
	s.autoClosed = autoClosed
	s.status = StatusTracked
	s.updatedAt = now
	s.version++

	s.addEvent(events.NewTrackingCompleted(s.id, s.trackedDays, autoClosed, now))

	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (s *Suggestion) GetUncommittedEvents() []events.DomainEvent {
	return s.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (s *Suggestion) MarkEventsAsCommitted() {
	s.events = []events.DomainEvent{}
}

func (s *Suggestion) addEvent(event events.DomainEvent) {
	s.events = append(s.events, event)
}
