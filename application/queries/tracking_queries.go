package queries

import "errors"

// GetSuggestionQuery represents a query to get a single suggestion
type GetSuggestionQuery struct {
	SuggestionID string
}

// Validate validates the GetSuggestionQuery
func (q GetSuggestionQuery) Validate() error {
	if q.SuggestionID == "" {
		return errors.New("suggestion ID is required")
	}
	return nil
}

// GetSuggestionTimelineQuery requests the tracking history of a suggestion
type GetSuggestionTimelineQuery struct {
	SuggestionID string
}

// Validate validates the GetSuggestionTimelineQuery
func (q GetSuggestionTimelineQuery) Validate() error {
	if q.SuggestionID == "" {
		return errors.New("suggestion ID is required")
	}
	return nil
}

// ListSuggestionsQuery represents a query to list suggestions for a domain
type ListSuggestionsQuery struct {
	DomainID string
	Status   string
	Limit    int
	Offset   int
}

// Validate validates the ListSuggestionsQuery
func (q ListSuggestionsQuery) Validate() error {
	if q.DomainID == "" {
		return errors.New("domain ID is required")
	}
	if q.Limit < 0 || q.Offset < 0 {
		return errors.New("limit and offset must be non-negative")
	}
	return nil
}

// SuggestionResult represents a suggestion in query responses
type SuggestionResult struct {
	ID                string             `json:"id"`
	DomainID          string             `json:"domainId"`
	PageID            string             `json:"pageId"`
	PageURL           string             `json:"pageUrl"`
	Kind              string             `json:"kind"`
	Description       string             `json:"description"`
	Status            string             `json:"status"`
	Baseline          *MetricsResult     `json:"baseline,omitempty"`
	FinalMetrics      *MetricsResult     `json:"finalMetrics,omitempty"`
	TrackingStartedAt string             `json:"trackingStartedAt,omitempty"`
	TrackingEndedAt   string             `json:"trackingEndedAt,omitempty"`
	TrackedDays       int                `json:"trackedDays"`
	AutoClosed        bool               `json:"autoClosed"`
	Effectiveness     *float64           `json:"effectiveness,omitempty"`
	Trend             string             `json:"trend,omitempty"`
	LatestAnalysis    *AnalysisResultDTO `json:"latestAnalysis,omitempty"`
	CreatedAt         string             `json:"createdAt"`
	UpdatedAt         string             `json:"updatedAt"`
	Version           int                `json:"version"`
}

// MetricsResult represents a metric reading in query responses
type MetricsResult struct {
	Impressions      int64    `json:"impressions"`
	Clicks           int64    `json:"clicks"`
	CTR              float64  `json:"ctr"`
	AvgPosition      float64  `json:"avgPosition"`
	SEOScore         *float64 `json:"seoScore,omitempty"`
	PerformanceScore *float64 `json:"performanceScore,omitempty"`
	HealthScore      *float64 `json:"healthScore,omitempty"`
}

// AnalysisResultDTO represents an impact analysis in query responses
type AnalysisResultDTO struct {
	OverallEffect   string           `json:"overallEffect"`
	Confidence      float64          `json:"confidence"`
	Summary         string           `json:"summary"`
	Deltas          []MetricDeltaDTO `json:"deltas"`
	Factors         []string         `json:"factors,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty"`
	Insights        []string         `json:"insights,omitempty"`
	Source          string           `json:"source"`
}

// MetricDeltaDTO represents a single metric movement
type MetricDeltaDTO struct {
	Metric    string   `json:"metric"`
	Baseline  float64  `json:"baseline"`
	Current   float64  `json:"current"`
	Delta     float64  `json:"delta"`
	Percent   *float64 `json:"percent,omitempty"`
	Direction string   `json:"direction"`
}

// ListSuggestionsResult represents a page of suggestions
type ListSuggestionsResult struct {
	Suggestions []SuggestionResult `json:"suggestions"`
	Total       int                `json:"total"`
	Limit       int                `json:"limit"`
	Offset      int                `json:"offset"`
}

// TimelineEntry represents one day of tracking history
type TimelineEntry struct {
	Date       string        `json:"date"`
	DayNumber  int           `json:"dayNumber"`
	Metrics    MetricsResult `json:"metrics"`
	CapturedAt string        `json:"capturedAt"`
}

// AnalysisLogEntry represents one recorded impact analysis
type AnalysisLogEntry struct {
	AnalysisType  string            `json:"analysisType"`
	AnalyzedAt    string            `json:"analyzedAt"`
	Effectiveness float64           `json:"effectiveness"`
	Trend         string            `json:"trend"`
	Analysis      AnalysisResultDTO `json:"analysis"`
}

// GetSuggestionTimelineResult combines snapshots and analyses in order
type GetSuggestionTimelineResult struct {
	SuggestionID string             `json:"suggestionId"`
	Status       string             `json:"status"`
	Baseline     *MetricsResult     `json:"baseline,omitempty"`
	Snapshots    []TimelineEntry    `json:"snapshots"`
	Analyses     []AnalysisLogEntry `json:"analyses"`
}
