// Package collaborators holds placeholder implementations for the
// external data sources. Each returns an unavailable error, so
// tracking degrades to blank metric parts and heuristic analysis
// until the real integrations are configured.
package collaborators

import (
	"context"
	"time"

	"seopilot-backend/application/ports"
	pkgerrors "seopilot-backend/pkg/errors"
)

// UnavailableAnalytics is an AnalyticsSource with no backing integration
type UnavailableAnalytics struct{}

// NewUnavailableAnalytics creates a no-op analytics source
func NewUnavailableAnalytics() ports.AnalyticsSource {
	return UnavailableAnalytics{}
}

func (UnavailableAnalytics) PageTraffic(ctx context.Context, siteURL, pageURL string, from, to time.Time) (ports.PageTraffic, error) {
	return ports.PageTraffic{}, pkgerrors.NewUnavailableError("search analytics")
}

func (UnavailableAnalytics) SiteTraffic(ctx context.Context, siteURL string, from, to time.Time) (ports.PageTraffic, error) {
	return ports.PageTraffic{}, pkgerrors.NewUnavailableError("search analytics")
}

// UnavailableSEOStore is a SEOMetricsStore with no backing integration
type UnavailableSEOStore struct{}

// NewUnavailableSEOStore creates a no-op audit score store
func NewUnavailableSEOStore() ports.SEOMetricsStore {
	return UnavailableSEOStore{}
}

func (UnavailableSEOStore) LatestScores(ctx context.Context, pageURL string) (ports.AuditScores, error) {
	return ports.AuditScores{}, pkgerrors.NewUnavailableError("audit scores")
}

// UnavailableSummarizer is an AISummarizer with no backing integration
type UnavailableSummarizer struct{}

// NewUnavailableSummarizer creates a no-op summarizer
func NewUnavailableSummarizer() ports.AISummarizer {
	return UnavailableSummarizer{}
}

func (UnavailableSummarizer) AnalyzeImpact(ctx context.Context, payload []byte) (ports.AIAnalysis, error) {
	return ports.AIAnalysis{}, pkgerrors.NewUnavailableError("ai summarizer")
}
