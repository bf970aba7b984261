package valueobjects

// PageMetrics is a point-in-time reading of a page's search and quality
// metrics. Search console values default to zero when the analytics
// source has no data; score pointers stay nil when the audit store has
// never scored the page, which is different from a score of zero.
type PageMetrics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
	AvgPosition float64 `json:"avg_position"`

	SEOScore         *float64 `json:"seo_score,omitempty"`
	PerformanceScore *float64 `json:"performance_score,omitempty"`
	HealthScore      *float64 `json:"health_score,omitempty"`
}

// HasSearchData reports whether the analytics source returned any signal
func (m PageMetrics) HasSearchData() bool {
	return m.Impressions > 0 || m.Clicks > 0 || m.AvgPosition > 0
}

// IsEmpty reports whether the reading carries no data at all
func (m PageMetrics) IsEmpty() bool {
	return !m.HasSearchData() && m.SEOScore == nil && m.PerformanceScore == nil && m.HealthScore == nil
}
