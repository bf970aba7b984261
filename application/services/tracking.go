package services

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"go.uber.org/zap"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/config"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
	"seopilot-backend/domain/events"
	pkgerrors "seopilot-backend/pkg/errors"
	"seopilot-backend/pkg/utils"
)

// trafficWindowDays is the search-analytics lookback for one reading
const trafficWindowDays = 28

// TrackingService drives the suggestion tracking lifecycle: baseline
// capture, daily snapshots, impact analysis and completion. Collaborator
// failures degrade the reading instead of failing the operation.
type TrackingService struct {
	suggestionRepo ports.SuggestionRepository
	snapshotRepo   ports.SnapshotRepository
	analysisRepo   ports.AnalysisLogRepository
	analytics      ports.AnalyticsSource
	seoStore       ports.SEOMetricsStore
	summarizer     ports.AISummarizer
	publisher      ports.EventPublisher
	analyzer       *ImpactAnalyzer
	config         *config.DomainConfig
	logger         *zap.Logger

	collaboratorTimeout time.Duration

	// clock is swapped in tests to make day math deterministic
	clock func() time.Time
}

// NewTrackingService creates a tracking service
func NewTrackingService(
	suggestionRepo ports.SuggestionRepository,
	snapshotRepo ports.SnapshotRepository,
	analysisRepo ports.AnalysisLogRepository,
	analytics ports.AnalyticsSource,
	seoStore ports.SEOMetricsStore,
	summarizer ports.AISummarizer,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	collaboratorTimeout time.Duration,
	logger *zap.Logger,
) *TrackingService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if collaboratorTimeout <= 0 {
		collaboratorTimeout = 10 * time.Second
	}
	return &TrackingService{
		suggestionRepo:      suggestionRepo,
		snapshotRepo:        snapshotRepo,
		analysisRepo:        analysisRepo,
		analytics:           analytics,
		seoStore:            seoStore,
		summarizer:          summarizer,
		publisher:           publisher,
		analyzer:            NewImpactAnalyzer(cfg),
		config:              cfg,
		collaboratorTimeout: collaboratorTimeout,
		logger:              logger,
		clock:               time.Now,
	}
}

// StartTracking captures a baseline reading and moves the suggestion
// into the tracking state.
func (s *TrackingService) StartTracking(ctx context.Context, suggestionID valueobjects.SuggestionID) (*entities.Suggestion, error) {
	suggestion, err := s.suggestionRepo.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	baseline := s.captureMetrics(ctx, suggestion)
	now := s.clock()

	if err := suggestion.StartTracking(baseline, now); err != nil {
		return nil, err
	}
	if err := s.suggestionRepo.Save(ctx, suggestion); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save suggestion")
	}
	s.publishEvents(ctx, suggestion)

	s.logger.Info("tracking started",
		zap.String("suggestion_id", suggestionID.String()),
		zap.String("page_url", suggestion.PageURL()),
	)

	return suggestion, nil
}

// CaptureDailySnapshot records today's reading for a tracking
// suggestion. Capturing the same day twice is a no-op: the stored
// snapshot wins and is returned with created=false.
func (s *TrackingService) CaptureDailySnapshot(ctx context.Context, suggestionID valueobjects.SuggestionID) (*entities.TrackingSnapshot, bool, error) {
	suggestion, err := s.suggestionRepo.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, false, err
	}
	if !suggestion.IsTracking() {
		return nil, false, pkgerrors.NewInvalidStateError(string(suggestion.Status()), "capture snapshot")
	}

	now := s.clock()
	day := utils.DateOf(now)

	// Day numbers are 1-based: the start day is day one
	dayNumber := 1
	if started := suggestion.TrackingStartedAt(); started != nil {
		dayNumber = utils.DaysBetween(*started, now) + 1
	}

	metrics := s.captureMetrics(ctx, suggestion)
	snapshot := entities.NewTrackingSnapshot(suggestion.ID(), suggestion.PageID(), day, dayNumber, metrics, now)

	created, err := s.snapshotRepo.Insert(ctx, snapshot)
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "failed to store snapshot")
	}
	if !created {
		existing, err := s.snapshotRepo.GetByDate(ctx, suggestion.ID(), snapshot.SnapshotDate)
		if err != nil {
			return nil, false, pkgerrors.Wrap(err, "failed to load existing snapshot")
		}
		return existing, false, nil
	}

	suggestion.RecordSnapshotDay(dayNumber, now)
	if err := s.suggestionRepo.Save(ctx, suggestion); err != nil {
		return nil, false, pkgerrors.Wrap(err, "failed to save suggestion")
	}

	if s.publisher != nil && s.config.EnableEventEmission {
		evt := events.NewSnapshotCaptured(suggestion.ID(), snapshot.SnapshotDate, dayNumber, now)
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("failed to publish snapshot event",
				zap.String("suggestion_id", suggestionID.String()),
				zap.Error(err),
			)
		}
	}
	s.publishEvents(ctx, suggestion)

	return &snapshot, true, nil
}

// AnalyzeImpact compares the latest stored snapshot to the tracking
// baseline, asks the summarizer for a judgement when enabled, and
// model failures fall back to the deterministic heuristic. At least
// one snapshot must exist. analysisType labels the run in the log;
// empty means manual.
func (s *TrackingService) AnalyzeImpact(ctx context.Context, suggestionID valueobjects.SuggestionID, analysisType string) (*entities.EffectivenessLog, error) {
	suggestion, err := s.suggestionRepo.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status() != entities.StatusTracking && suggestion.Status() != entities.StatusTracked {
		return nil, pkgerrors.NewInvalidStateError(string(suggestion.Status()), "analyze impact")
	}
	baseline := suggestion.Baseline()
	if baseline == nil {
		return nil, pkgerrors.NewNoDataError("suggestion has no tracking baseline")
	}

	snapshots, err := s.snapshotRepo.ListBySuggestion(ctx, suggestionID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load snapshots")
	}
	if len(snapshots) == 0 {
		return nil, pkgerrors.NewNoDataError("no snapshots recorded for suggestion")
	}

	current := snapshots[len(snapshots)-1].Metrics

	deltas := s.analyzer.ComputeDeltas(*baseline, current)
	analysis := s.runAnalysis(ctx, suggestion, deltas)
	effectiveness := s.analyzer.EffectivenessScore(deltas, analysis)
	trend := s.analyzer.TrendDirection(snapshots)

	now := s.clock()
	log := entities.NewEffectivenessLog(suggestionID, analysisType, now, effectiveness, trend, analysis, current)
	if err := s.analysisRepo.Append(ctx, log); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to store analysis")
	}

	suggestion.SetLatestAnalysis(analysis, effectiveness, trend, now)
	if err := s.suggestionRepo.Save(ctx, suggestion); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save suggestion")
	}
	s.publishEvents(ctx, suggestion)

	return &log, nil
}

// EndTracking captures a final reading and completes the suggestion.
// When runFinalAnalysis is set, a final impact analysis is recorded
// first; a failed analysis does not block completion.
func (s *TrackingService) EndTracking(ctx context.Context, suggestionID valueobjects.SuggestionID, runFinalAnalysis bool) (*entities.Suggestion, error) {
	if runFinalAnalysis {
		s.runFinalAnalysis(ctx, suggestionID)
	}
	return s.endTracking(ctx, suggestionID, false)
}

// runFinalAnalysis records a closing analysis run. A failed run never
// blocks completion.
func (s *TrackingService) runFinalAnalysis(ctx context.Context, suggestionID valueobjects.SuggestionID) {
	if _, err := s.AnalyzeImpact(ctx, suggestionID, entities.AnalysisFinal); err != nil {
		s.logger.Warn("final analysis failed, completing anyway",
			zap.String("suggestion_id", suggestionID.String()),
			zap.Error(err),
		)
	}
}

// AutoCompleteStale ends tracking for suggestions that have been under
// observation longer than maxDays (the configured maximum when <= 0).
// Each completion records a final analysis first. Per-item failures
// are logged and skipped so one bad record never stalls the sweep.
func (s *TrackingService) AutoCompleteStale(ctx context.Context, maxDays int) (int, error) {
	if !s.config.EnableAutoComplete {
		return 0, nil
	}
	if maxDays <= 0 {
		maxDays = s.config.MaxTrackingDays
	}

	cutoff := s.clock().AddDate(0, 0, -maxDays)
	stale, err := s.suggestionRepo.ListTrackingStartedBefore(ctx, cutoff, 0)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to list stale suggestions")
	}

	completed := 0
	for _, suggestion := range stale {
		s.runFinalAnalysis(ctx, suggestion.ID())
		if _, err := s.endTracking(ctx, suggestion.ID(), true); err != nil {
			s.logger.Warn("failed to auto-complete suggestion",
				zap.String("suggestion_id", suggestion.ID().String()),
				zap.Error(err),
			)
			continue
		}
		completed++
	}

	s.logger.Info("stale tracking sweep finished",
		zap.Int("candidates", len(stale)),
		zap.Int("completed", completed),
	)

	return completed, nil
}

func (s *TrackingService) endTracking(ctx context.Context, suggestionID valueobjects.SuggestionID, autoClosed bool) (*entities.Suggestion, error) {
	suggestion, err := s.suggestionRepo.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	final := s.captureMetrics(ctx, suggestion)
	now := s.clock()

	if err := suggestion.EndTracking(final, autoClosed, now); err != nil {
		return nil, err
	}
	if err := s.suggestionRepo.Save(ctx, suggestion); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save suggestion")
	}
	s.publishEvents(ctx, suggestion)

	s.logger.Info("tracking ended",
		zap.String("suggestion_id", suggestionID.String()),
		zap.Int("tracked_days", suggestion.TrackedDays()),
		zap.Bool("auto_closed", autoClosed),
	)

	return suggestion, nil
}

// captureMetrics reads the suggestion's current metrics from the
// analytics source and the audit store. A page suggestion reads its
// page's traffic; a domain-wide suggestion reads the aggregate site
// traffic. Each collaborator gets a bounded timeout and its failure
// only blanks its part of the reading.
func (s *TrackingService) captureMetrics(ctx context.Context, suggestion *entities.Suggestion) valueobjects.PageMetrics {
	var metrics valueobjects.PageMetrics
	targetURL := suggestion.PageURL()

	if s.analytics != nil {
		tctx, cancel := context.WithTimeout(ctx, s.collaboratorTimeout)
		to := s.clock()
		from := to.AddDate(0, 0, -trafficWindowDays)
		var traffic ports.PageTraffic
		var err error
		if suggestion.HasPage() {
			traffic, err = s.analytics.PageTraffic(tctx, siteURLOf(targetURL), targetURL, from, to)
		} else {
			traffic, err = s.analytics.SiteTraffic(tctx, siteURLOf(targetURL), from, to)
		}
		cancel()
		if err != nil {
			s.logger.Warn("analytics source unavailable",
				zap.String("target_url", targetURL),
				zap.Error(err),
			)
		} else {
			metrics.Impressions = traffic.Impressions
			metrics.Clicks = traffic.Clicks
			metrics.CTR = traffic.CTR
			metrics.AvgPosition = traffic.AvgPosition
		}
	}

	// Audit scores exist per page; a domain-wide suggestion keeps them blank
	if s.seoStore != nil && suggestion.HasPage() {
		tctx, cancel := context.WithTimeout(ctx, s.collaboratorTimeout)
		scores, err := s.seoStore.LatestScores(tctx, targetURL)
		cancel()
		if err != nil {
			s.logger.Warn("audit score store unavailable",
				zap.String("target_url", targetURL),
				zap.Error(err),
			)
		} else {
			metrics.SEOScore = scores.SEOScore
			metrics.PerformanceScore = scores.PerformanceScore
			metrics.HealthScore = scores.HealthScore
		}
	}

	return metrics
}

// runAnalysis asks the summarizer for a judgement and falls back to the
// heuristic when the model is disabled, times out or answers garbage.
func (s *TrackingService) runAnalysis(ctx context.Context, suggestion *entities.Suggestion, deltas []valueobjects.MetricDelta) valueobjects.AnalysisResult {
	if s.summarizer == nil || !s.config.EnableAISummaries {
		return s.analyzer.FallbackAnalysis(deltas)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"suggestion_kind": suggestion.Kind(),
		"description":     suggestion.Description(),
		"page_url":        suggestion.PageURL(),
		"tracked_days":    suggestion.TrackedDays(),
		"deltas":          deltas,
	})
	if err != nil {
		return s.analyzer.FallbackAnalysis(deltas)
	}

	tctx, cancel := context.WithTimeout(ctx, s.collaboratorTimeout)
	defer cancel()

	ai, err := s.summarizer.AnalyzeImpact(tctx, payload)
	if err != nil {
		s.logger.Warn("summarizer unavailable, using heuristic analysis",
			zap.String("suggestion_id", suggestion.ID().String()),
			zap.Error(err),
		)
		return s.analyzer.FallbackAnalysis(deltas)
	}
	if !validEffect(ai.OverallEffect) {
		s.logger.Warn("summarizer returned an invalid verdict, using heuristic analysis",
			zap.String("suggestion_id", suggestion.ID().String()),
			zap.String("overall_effect", ai.OverallEffect),
		)
		return s.analyzer.FallbackAnalysis(deltas)
	}

	return valueobjects.AnalysisResult{
		OverallEffect:   ai.OverallEffect,
		Confidence:      clamp(ai.Confidence, 0, 1),
		Summary:         ai.Summary,
		Deltas:          deltas,
		Factors:         ai.Factors,
		Recommendations: ai.Recommendations,
		Insights:        ai.Insights,
		Source:          valueobjects.AnalysisSourceAI,
	}
}

func validEffect(effect string) bool {
	switch effect {
	case valueobjects.EffectPositive, valueobjects.EffectNegative,
		valueobjects.EffectNeutral, valueobjects.EffectInconclusive:
		return true
	}
	return false
}

func (s *TrackingService) publishEvents(ctx context.Context, suggestion *entities.Suggestion) {
	if s.publisher == nil || !s.config.EnableEventEmission {
		return
	}
	evts := suggestion.GetUncommittedEvents()
	if len(evts) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		s.logger.Warn("failed to publish suggestion events",
			zap.String("suggestion_id", suggestion.ID().String()),
			zap.Error(err),
		)
		return
	}
	suggestion.MarkEventsAsCommitted()
}

// siteURLOf reduces a page URL to its scheme://host origin
func siteURLOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return pageURL
	}
	return u.Scheme + "://" + u.Host
}
