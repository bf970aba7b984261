package ports

import (
	"context"
	"time"

	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
	"seopilot-backend/domain/events"
)

// PageRepository provides access to the page tree
type PageRepository interface {
	// GetByID retrieves a single page
	GetByID(ctx context.Context, id valueobjects.PageID) (*entities.Page, error)

	// GetByDomainID retrieves all pages of a site tree
	GetByDomainID(ctx context.Context, domainID valueobjects.DomainID) ([]*entities.Page, error)

	// Save persists a page (create or update)
	Save(ctx context.Context, page *entities.Page) error

	// BulkSave persists a set of pages atomically
	BulkSave(ctx context.Context, pages []*entities.Page) error

	// Delete removes a page
	Delete(ctx context.Context, id valueobjects.PageID) error
}

// SuggestionRepository provides access to applied suggestions
type SuggestionRepository interface {
	// GetByID retrieves a single suggestion
	GetByID(ctx context.Context, id valueobjects.SuggestionID) (*entities.Suggestion, error)

	// ListByDomain retrieves suggestions for a site, newest first
	ListByDomain(ctx context.Context, domainID valueobjects.DomainID, limit, offset int) ([]*entities.Suggestion, error)

	// ListByStatus retrieves suggestions in a given lifecycle state
	ListByStatus(ctx context.Context, status entities.SuggestionStatus, limit int) ([]*entities.Suggestion, error)

	// ListTrackingStartedBefore retrieves tracking suggestions whose
	// tracking began before the cutoff. Used by the stale sweep.
	ListTrackingStartedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Suggestion, error)

	// Save persists a suggestion (create or update)
	Save(ctx context.Context, suggestion *entities.Suggestion) error
}

// SnapshotRepository stores daily tracking snapshots
type SnapshotRepository interface {
	// Insert writes a snapshot if none exists for its suggestion and
	// date. Returns false when the day was already captured.
	Insert(ctx context.Context, snapshot entities.TrackingSnapshot) (bool, error)

	// GetByDate retrieves the snapshot for a specific yyyy-mm-dd day
	GetByDate(ctx context.Context, suggestionID valueobjects.SuggestionID, date string) (*entities.TrackingSnapshot, error)

	// ListBySuggestion retrieves all snapshots for a suggestion in date order
	ListBySuggestion(ctx context.Context, suggestionID valueobjects.SuggestionID) ([]entities.TrackingSnapshot, error)
}

// AnalysisLogRepository stores the append-only impact analysis history
type AnalysisLogRepository interface {
	// Append writes an analysis record
	Append(ctx context.Context, log entities.EffectivenessLog) error

	// ListBySuggestion retrieves all analysis records in time order
	ListBySuggestion(ctx context.Context, suggestionID valueobjects.SuggestionID) ([]entities.EffectivenessLog, error)
}

// EventPublisher publishes domain events to the event bus
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// Cache provides query-result caching
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// DomainLock serializes structural operations on one site tree so
// concurrent reparents cannot interleave.
type DomainLock interface {
	// Acquire takes the lock for a domain, returning a release func
	Acquire(ctx context.Context, domainID valueobjects.DomainID) (release func(), err error)
}
