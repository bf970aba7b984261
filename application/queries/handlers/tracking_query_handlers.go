package handlers

import (
	"context"
	"fmt"
	"time"

	"seopilot-backend/application/ports"
	"seopilot-backend/application/queries"
	"seopilot-backend/application/queries/bus"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
)

// GetSuggestionHandler handles single-suggestion queries
type GetSuggestionHandler struct {
	suggestionRepo ports.SuggestionRepository
}

// NewGetSuggestionHandler creates a new suggestion query handler
func NewGetSuggestionHandler(suggestionRepo ports.SuggestionRepository) *GetSuggestionHandler {
	return &GetSuggestionHandler{suggestionRepo: suggestionRepo}
}

// Handle executes the suggestion query
func (h *GetSuggestionHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetSuggestionQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	suggestionID, err := valueobjects.NewSuggestionIDFromString(q.SuggestionID)
	if err != nil {
		return nil, err
	}

	suggestion, err := h.suggestionRepo.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	result := suggestionToResult(suggestion)
	return &result, nil
}

// ListSuggestionsHandler handles domain suggestion listings
type ListSuggestionsHandler struct {
	suggestionRepo ports.SuggestionRepository
}

// NewListSuggestionsHandler creates a new suggestion list handler
func NewListSuggestionsHandler(suggestionRepo ports.SuggestionRepository) *ListSuggestionsHandler {
	return &ListSuggestionsHandler{suggestionRepo: suggestionRepo}
}

// Handle executes the list query
func (h *ListSuggestionsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ListSuggestionsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	domainID, err := valueobjects.NewDomainIDFromString(q.DomainID)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	suggestions, err := h.suggestionRepo.ListByDomain(ctx, domainID, limit, q.Offset)
	if err != nil {
		return nil, err
	}

	results := make([]queries.SuggestionResult, 0, len(suggestions))
	for _, s := range suggestions {
		if q.Status != "" && string(s.Status()) != q.Status {
			continue
		}
		results = append(results, suggestionToResult(s))
	}

	return &queries.ListSuggestionsResult{
		Suggestions: results,
		Total:       len(results),
		Limit:       limit,
		Offset:      q.Offset,
	}, nil
}

// GetSuggestionTimelineHandler assembles a suggestion's tracking history
type GetSuggestionTimelineHandler struct {
	suggestionRepo ports.SuggestionRepository
	snapshotRepo   ports.SnapshotRepository
	analysisRepo   ports.AnalysisLogRepository
}

// NewGetSuggestionTimelineHandler creates a new timeline query handler
func NewGetSuggestionTimelineHandler(
	suggestionRepo ports.SuggestionRepository,
	snapshotRepo ports.SnapshotRepository,
	analysisRepo ports.AnalysisLogRepository,
) *GetSuggestionTimelineHandler {
	return &GetSuggestionTimelineHandler{
		suggestionRepo: suggestionRepo,
		snapshotRepo:   snapshotRepo,
		analysisRepo:   analysisRepo,
	}
}

// Handle executes the timeline query
func (h *GetSuggestionTimelineHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetSuggestionTimelineQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	suggestionID, err := valueobjects.NewSuggestionIDFromString(q.SuggestionID)
	if err != nil {
		return nil, err
	}

	suggestion, err := h.suggestionRepo.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	snapshots, err := h.snapshotRepo.ListBySuggestion(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	logs, err := h.analysisRepo.ListBySuggestion(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	entries := make([]queries.TimelineEntry, 0, len(snapshots))
	for _, snap := range snapshots {
		entries = append(entries, queries.TimelineEntry{
			Date:       snap.SnapshotDate,
			DayNumber:  snap.DayNumber,
			Metrics:    metricsToResult(snap.Metrics),
			CapturedAt: snap.CapturedAt.Format(time.RFC3339),
		})
	}

	analyses := make([]queries.AnalysisLogEntry, 0, len(logs))
	for _, log := range logs {
		analyses = append(analyses, queries.AnalysisLogEntry{
			AnalysisType:  log.AnalysisType,
			AnalyzedAt:    log.AnalyzedAt.Format(time.RFC3339),
			Effectiveness: log.Effectiveness,
			Trend:         log.Trend,
			Analysis:      analysisToDTO(log.Analysis),
		})
	}

	result := &queries.GetSuggestionTimelineResult{
		SuggestionID: suggestion.ID().String(),
		Status:       string(suggestion.Status()),
		Snapshots:    entries,
		Analyses:     analyses,
	}
	if baseline := suggestion.Baseline(); baseline != nil {
		b := metricsToResult(*baseline)
		result.Baseline = &b
	}
	return result, nil
}

func suggestionToResult(s *entities.Suggestion) queries.SuggestionResult {
	result := queries.SuggestionResult{
		ID:          s.ID().String(),
		DomainID:    s.DomainID().String(),
		PageID:      s.PageID().String(),
		PageURL:     s.PageURL(),
		Kind:        s.Kind(),
		Description: s.Description(),
		Status:      string(s.Status()),
		TrackedDays: s.TrackedDays(),
		AutoClosed:  s.AutoClosed(),
		Trend:       s.Trend(),
		CreatedAt:   s.CreatedAt().Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt().Format(time.RFC3339),
		Version:     s.Version(),
	}
	if baseline := s.Baseline(); baseline != nil {
		b := metricsToResult(*baseline)
		result.Baseline = &b
	}
	if final := s.FinalMetrics(); final != nil {
		f := metricsToResult(*final)
		result.FinalMetrics = &f
	}
	if started := s.TrackingStartedAt(); started != nil {
		result.TrackingStartedAt = started.Format(time.RFC3339)
	}
	if ended := s.TrackingEndedAt(); ended != nil {
		result.TrackingEndedAt = ended.Format(time.RFC3339)
	}
	if eff := s.Effectiveness(); eff != nil {
		v := *eff
		result.Effectiveness = &v
	}
	if analysis := s.LatestAnalysis(); analysis != nil {
		dto := analysisToDTO(*analysis)
		result.LatestAnalysis = &dto
	}
	return result
}

func metricsToResult(m valueobjects.PageMetrics) queries.MetricsResult {
	return queries.MetricsResult{
		Impressions:      m.Impressions,
		Clicks:           m.Clicks,
		CTR:              m.CTR,
		AvgPosition:      m.AvgPosition,
		SEOScore:         m.SEOScore,
		PerformanceScore: m.PerformanceScore,
		HealthScore:      m.HealthScore,
	}
}

func analysisToDTO(a valueobjects.AnalysisResult) queries.AnalysisResultDTO {
	deltas := make([]queries.MetricDeltaDTO, 0, len(a.Deltas))
	for _, d := range a.Deltas {
		deltas = append(deltas, queries.MetricDeltaDTO{
			Metric:    d.Metric,
			Baseline:  d.Baseline,
			Current:   d.Current,
			Delta:     d.Delta,
			Percent:   d.Percent,
			Direction: d.Direction,
		})
	}
	return queries.AnalysisResultDTO{
		OverallEffect:   a.OverallEffect,
		Confidence:      a.Confidence,
		Summary:         a.Summary,
		Deltas:          deltas,
		Factors:         a.Factors,
		Recommendations: a.Recommendations,
		Insights:        a.Insights,
		Source:          a.Source,
	}
}
