package services

import (
	"fmt"
	"math"

	"seopilot-backend/domain/config"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
)

// Metric names used in deltas, scoring and API payloads
const (
	MetricImpressions = "impressions"
	MetricClicks      = "clicks"
	MetricCTR         = "ctr"
	MetricPosition    = "position"
	MetricSEOScore    = "seo_score"
	MetricHealthScore = "health_score"
)

// ImpactAnalyzer holds the deterministic heuristics for judging how a
// page moved between its tracking baseline and the current reading.
// All methods are pure so they can be exercised without any wiring.
type ImpactAnalyzer struct {
	config *config.DomainConfig
}

// NewImpactAnalyzer creates an analyzer with the given tuning
func NewImpactAnalyzer(cfg *config.DomainConfig) *ImpactAnalyzer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ImpactAnalyzer{config: cfg}
}

// ComputeDeltas builds the per-metric movement between baseline and
// current. Metrics with no comparable reading are omitted: position
// needs both readings above zero, scores need both present.
func (a *ImpactAnalyzer) ComputeDeltas(baseline, current valueobjects.PageMetrics) []valueobjects.MetricDelta {
	deltas := make([]valueobjects.MetricDelta, 0, 6)

	deltas = append(deltas, countDelta(MetricImpressions, baseline.Impressions, current.Impressions))
	deltas = append(deltas, countDelta(MetricClicks, baseline.Clicks, current.Clicks))

	// CTR moves in absolute points, not percent
	ctrDelta := round2(current.CTR - baseline.CTR)
	deltas = append(deltas, valueobjects.MetricDelta{
		Metric:    MetricCTR,
		Baseline:  baseline.CTR,
		Current:   current.CTR,
		Delta:     ctrDelta,
		Direction: directionOf(ctrDelta),
	})

	// Position is only comparable when both readings exist; a lower
	// position is better, so direction flips.
	if baseline.AvgPosition > 0 && current.AvgPosition > 0 {
		posDelta := round2(current.AvgPosition - baseline.AvgPosition)
		deltas = append(deltas, valueobjects.MetricDelta{
			Metric:    MetricPosition,
			Baseline:  baseline.AvgPosition,
			Current:   current.AvgPosition,
			Delta:     posDelta,
			Direction: directionOf(-posDelta),
		})
	}

	if d, ok := scoreDelta(MetricSEOScore, baseline.SEOScore, current.SEOScore); ok {
		deltas = append(deltas, d)
	}
	if d, ok := scoreDelta(MetricHealthScore, baseline.HealthScore, current.HealthScore); ok {
		deltas = append(deltas, d)
	}

	return deltas
}

func countDelta(metric string, baseline, current int64) valueobjects.MetricDelta {
	delta := float64(current - baseline)

	var pct float64
	switch {
	case baseline > 0:
		pct = delta / float64(baseline) * 100
	case current > 0:
		pct = 100
	default:
		pct = 0
	}
	pct = round2(pct)

	return valueobjects.MetricDelta{
		Metric:    metric,
		Baseline:  float64(baseline),
		Current:   float64(current),
		Delta:     delta,
		Percent:   &pct,
		Direction: directionOf(delta),
	}
}

func scoreDelta(metric string, baseline, current *float64) (valueobjects.MetricDelta, bool) {
	if baseline == nil || current == nil {
		return valueobjects.MetricDelta{}, false
	}
	delta := round1(*current - *baseline)
	return valueobjects.MetricDelta{
		Metric:    metric,
		Baseline:  *baseline,
		Current:   *current,
		Delta:     delta,
		Direction: directionOf(delta),
	}, true
}

func directionOf(delta float64) string {
	switch {
	case delta > 0:
		return valueobjects.DirectionUp
	case delta < 0:
		return valueobjects.DirectionDown
	default:
		return valueobjects.DirectionNeutral
	}
}

// FallbackAnalysis judges the movement without a model: a majority of
// improving metrics wins, a tie is neutral, and confidence is fixed at
// the heuristic level.
func (a *ImpactAnalyzer) FallbackAnalysis(deltas []valueobjects.MetricDelta) valueobjects.AnalysisResult {
	up, down := 0, 0
	for _, d := range deltas {
		switch d.Direction {
		case valueobjects.DirectionUp:
			up++
		case valueobjects.DirectionDown:
			down++
		}
	}

	effect := valueobjects.EffectNeutral
	if up > down {
		effect = valueobjects.EffectPositive
	} else if down > up {
		effect = valueobjects.EffectNegative
	}

	return valueobjects.AnalysisResult{
		OverallEffect: effect,
		Confidence:    a.config.FallbackConfidence,
		Summary:       fmt.Sprintf("%d of %d metrics improved, %d declined", up, len(deltas), down),
		Deltas:        deltas,
		Source:        valueobjects.AnalysisSourceHeuristic,
	}
}

// EffectivenessScore folds the metric movements into a 0-100 score.
// Every metric contributes at most half its weight in either direction;
// the analysis verdict shifts the score by up to the confidence weight.
func (a *ImpactAnalyzer) EffectivenessScore(deltas []valueobjects.MetricDelta, analysis valueobjects.AnalysisResult) float64 {
	weights := map[string]float64{
		MetricImpressions: a.config.ImpressionsWeight,
		MetricClicks:      a.config.ClicksWeight,
		MetricCTR:         a.config.CTRWeight,
		MetricPosition:    a.config.PositionWeight,
		MetricSEOScore:    a.config.SEOScoreWeight,
		MetricHealthScore: a.config.HealthScoreWeight,
	}

	score := a.config.BaseEffectiveness
	for _, d := range deltas {
		weight, ok := weights[d.Metric]
		if !ok || d.Direction == valueobjects.DirectionNeutral {
			continue
		}

		pct := relativeChangePct(d)
		contribution := math.Min(weight*a.config.MaxMetricContribPct, weight*math.Abs(pct)/100)
		if d.Direction == valueobjects.DirectionUp {
			score += contribution
		} else {
			score -= contribution
		}
	}

	switch analysis.OverallEffect {
	case valueobjects.EffectPositive:
		score += a.config.AIConfidenceWeight * analysis.Confidence
	case valueobjects.EffectNegative:
		score -= a.config.AIConfidenceWeight * analysis.Confidence
	}

	return round1(clamp(score, 0, 100))
}

// relativeChangePct normalizes a delta to a percentage of its baseline
// so differently scaled metrics contribute comparably. Metrics that
// already carry a percent use it directly.
func relativeChangePct(d valueobjects.MetricDelta) float64 {
	if d.Percent != nil {
		return *d.Percent
	}
	if d.Baseline != 0 {
		return d.Delta / math.Abs(d.Baseline) * 100
	}
	if d.Delta != 0 {
		return 100
	}
	return 0
}

// TrendDirection classifies the impressions series by comparing the
// mean of the most recent window against the mean of the earliest one.
// Short histories use a three-day window, longer ones a week. A series
// that moved less than the threshold either way is volatile when its
// coefficient of variation is high, otherwise stable.
func (a *ImpactAnalyzer) TrendDirection(snapshots []entities.TrackingSnapshot) string {
	if len(snapshots) < 2 {
		return valueobjects.TrendStable
	}

	window := a.config.TrendWindowShort
	if len(snapshots) >= a.config.TrendWindowCutover {
		window = a.config.TrendWindowLong
	}
	if window > len(snapshots) {
		window = len(snapshots)
	}

	series := make([]float64, len(snapshots))
	for i, snap := range snapshots {
		series[i] = float64(snap.Metrics.Impressions)
	}

	earliest := mean(series[:window])
	recent := mean(series[len(series)-window:])

	var changePct float64
	switch {
	case earliest > 0:
		changePct = (recent - earliest) / earliest * 100
	case recent > 0:
		changePct = 100
	}

	if changePct > a.config.TrendThresholdPct {
		return valueobjects.TrendImproving
	}
	if changePct < -a.config.TrendThresholdPct {
		return valueobjects.TrendDeclining
	}
	if coefficientOfVariation(series) > a.config.VolatilityCV {
		return valueobjects.TrendVolatile
	}
	return valueobjects.TrendStable
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// coefficientOfVariation is stddev/mean; zero-mean series yield zero
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / math.Abs(m)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
