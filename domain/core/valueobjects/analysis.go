package valueobjects

// Direction of change for a single metric between baseline and current
const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionNeutral = "neutral"
)

// Overall effect labels for an impact analysis
const (
	EffectPositive     = "positive"
	EffectNegative     = "negative"
	EffectNeutral      = "neutral"
	EffectInconclusive = "inconclusive"
)

// Trend direction labels for a snapshot series
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendVolatile  = "volatile"
	TrendStable    = "stable"
)

// Analysis sources
const (
	AnalysisSourceAI        = "ai"
	AnalysisSourceHeuristic = "heuristic"
)

// MetricDelta describes how one metric moved between the tracking
// baseline and the latest reading. Percent is nil when a percentage is
// not meaningful for the metric (CTR and position deltas are absolute).
type MetricDelta struct {
	Metric    string   `json:"metric"`
	Baseline  float64  `json:"baseline"`
	Current   float64  `json:"current"`
	Delta     float64  `json:"delta"`
	Percent   *float64 `json:"percent,omitempty"`
	Direction string   `json:"direction"`
}

// AnalysisResult is the outcome of an impact analysis run: the overall
// judgement, its confidence in [0,1], and supporting detail.
type AnalysisResult struct {
	OverallEffect   string        `json:"overall_effect"`
	Confidence      float64       `json:"confidence"`
	Summary         string        `json:"summary"`
	Deltas          []MetricDelta `json:"deltas"`
	Factors         []string      `json:"factors,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
	Insights        []string      `json:"insights,omitempty"`
	Source          string        `json:"source"`
}

// IsPositive reports whether the analysis judged the change beneficial
func (r AnalysisResult) IsPositive() bool {
	return r.OverallEffect == EffectPositive
}
