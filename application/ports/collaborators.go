package ports

import (
	"context"
	"time"
)

// PageTraffic is a search-analytics reading for one page over a window
type PageTraffic struct {
	Impressions int64
	Clicks      int64
	CTR         float64
	AvgPosition float64
}

// AnalyticsSource reads search performance data for pages. Implemented
// against the search console integration; a no-op implementation keeps
// tracking alive when the integration is not configured.
type AnalyticsSource interface {
	// PageTraffic returns metrics for one page URL over [from, to]
	PageTraffic(ctx context.Context, siteURL, pageURL string, from, to time.Time) (PageTraffic, error)

	// SiteTraffic returns aggregate metrics for the whole site
	SiteTraffic(ctx context.Context, siteURL string, from, to time.Time) (PageTraffic, error)
}

// AuditScores is the latest audit reading for a page
type AuditScores struct {
	SEOScore         *float64
	PerformanceScore *float64
	HealthScore      *float64
}

// SEOMetricsStore reads the most recent audit scores for a page
type SEOMetricsStore interface {
	LatestScores(ctx context.Context, pageURL string) (AuditScores, error)
}

// AIAnalysis is the model's judgement of a metric movement
type AIAnalysis struct {
	OverallEffect   string
	Confidence      float64
	Summary         string
	Factors         []string
	Recommendations []string
	Insights        []string
}

// AISummarizer asks a language model to interpret metric deltas.
// Failures are expected and callers must fall back to the heuristic.
type AISummarizer interface {
	// AnalyzeImpact receives a JSON document describing the deltas and
	// returns a structured judgement.
	AnalyzeImpact(ctx context.Context, payload []byte) (AIAnalysis, error)
}
