package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/config"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
	pkgerrors "seopilot-backend/pkg/errors"
)

type trackingFixture struct {
	svc            *TrackingService
	suggestionRepo *fakeSuggestionRepo
	snapshotRepo   *fakeSnapshotRepo
	analysisRepo   *fakeAnalysisRepo
	analytics      *fakeAnalytics
	seoStore       *fakeSEOStore
	summarizer     *fakeSummarizer
	publisher      *fakePublisher
	now            time.Time
}

func newTrackingFixture(t *testing.T, suggestions ...*entities.Suggestion) *trackingFixture {
	t.Helper()

	f := &trackingFixture{
		suggestionRepo: newFakeSuggestionRepo(suggestions...),
		snapshotRepo:   newFakeSnapshotRepo(),
		analysisRepo:   newFakeAnalysisRepo(),
		analytics: &fakeAnalytics{traffic: ports.PageTraffic{
			Impressions: 1000, Clicks: 50, CTR: 5.0, AvgPosition: 12.0,
		}},
		seoStore: &fakeSEOStore{scores: ports.AuditScores{
			SEOScore:    floatPtr(70),
			HealthScore: floatPtr(85),
		}},
		summarizer: &fakeSummarizer{analysis: ports.AIAnalysis{
			OverallEffect: valueobjects.EffectPositive,
			Confidence:    0.9,
			Summary:       "clicks and impressions are both trending up",
		}},
		publisher: &fakePublisher{},
		now:       time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
	}

	f.svc = NewTrackingService(
		f.suggestionRepo, f.snapshotRepo, f.analysisRepo,
		f.analytics, f.seoStore, f.summarizer, f.publisher,
		config.DefaultDomainConfig(), time.Second, testLogger(),
	)
	f.svc.clock = func() time.Time { return f.now }

	return f
}

func newAppliedSuggestion(t *testing.T) *entities.Suggestion {
	t.Helper()
	suggestion, err := entities.ReconstructSuggestion(
		testSuggestionID(1), testDomainID(1), testPageID(1),
		"https://example.com/pricing", "meta_title", "Rewrite the title tag",
		entities.StatusApplied,
		nil, nil, nil, nil, 0, false, nil, nil, "",
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 1,
	)
	require.NoError(t, err)
	return suggestion
}

func TestStartTrackingCapturesBaseline(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	tracked, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	assert.Equal(t, entities.StatusTracking, tracked.Status())
	require.NotNil(t, tracked.Baseline())
	assert.Equal(t, int64(1000), tracked.Baseline().Impressions)
	assert.Equal(t, int64(50), tracked.Baseline().Clicks)
	require.NotNil(t, tracked.Baseline().SEOScore)
	assert.Equal(t, 70.0, *tracked.Baseline().SEOScore)
	require.NotNil(t, tracked.TrackingStartedAt())
	assert.Equal(t, f.now, *tracked.TrackingStartedAt())
	assert.Contains(t, f.publisher.eventTypes(), "tracking.started")
}

func TestStartTrackingTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	_, err = f.svc.StartTracking(ctx, suggestion.ID())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeInvalidState))
}

func TestStartTrackingDegradesWhenCollaboratorsFail(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)
	f.analytics.err = errUnavailable
	f.seoStore.err = errUnavailable

	tracked, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	// Collaborator outages blank the reading instead of failing the op
	require.NotNil(t, tracked.Baseline())
	assert.Equal(t, int64(0), tracked.Baseline().Impressions)
	assert.Nil(t, tracked.Baseline().SEOScore)
	assert.Equal(t, entities.StatusTracking, tracked.Status())
}

func TestCaptureDailySnapshotIsIdempotent(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	first, created, err := f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2025-08-01", first.SnapshotDate)
	assert.Equal(t, 1, first.DayNumber)

	// Same day again: the stored snapshot wins
	f.analytics.traffic.Clicks = 999
	second, created, err := f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(50), second.Metrics.Clicks)

	snaps, err := f.snapshotRepo.ListBySuggestion(ctx, suggestion.ID())
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestCaptureDailySnapshotAdvancesDayNumber(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	_, _, err = f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)

	f.now = f.now.AddDate(0, 0, 3)
	snap, created, err := f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 4, snap.DayNumber)
	assert.Equal(t, 4, suggestion.TrackedDays())
}

func TestCaptureDailySnapshotRequiresTrackingState(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, _, err := f.svc.CaptureDailySnapshot(ctx, suggestion.ID())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeInvalidState))
}

func TestAnalyzeImpactUsesSummarizer(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	// The page improved since baseline
	f.now = f.now.AddDate(0, 0, 1)
	f.analytics.traffic = ports.PageTraffic{Impressions: 1500, Clicks: 90, CTR: 6.0, AvgPosition: 9.0}
	_, _, err = f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)

	log, err := f.svc.AnalyzeImpact(ctx, suggestion.ID(), "")
	require.NoError(t, err)

	assert.Equal(t, valueobjects.AnalysisSourceAI, log.Analysis.Source)
	assert.Equal(t, valueobjects.EffectPositive, log.Analysis.OverallEffect)
	assert.Greater(t, log.Effectiveness, 50.0)
	assert.Equal(t, 1, f.summarizer.calls)

	// The run is persisted on the log and on the suggestion
	logs, err := f.analysisRepo.ListBySuggestion(ctx, suggestion.ID())
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	require.NotNil(t, suggestion.Effectiveness())
	assert.Equal(t, log.Effectiveness, *suggestion.Effectiveness())
	assert.Contains(t, f.publisher.eventTypes(), "tracking.impact_analyzed")
}

func TestAnalyzeImpactFallsBackWhenSummarizerFails(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)
	f.summarizer.err = errUnavailable

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)
	_, _, err = f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)

	log, err := f.svc.AnalyzeImpact(ctx, suggestion.ID(), "")
	require.NoError(t, err)

	assert.Equal(t, valueobjects.AnalysisSourceHeuristic, log.Analysis.Source)
	assert.Equal(t, 0.5, log.Analysis.Confidence)
}

func TestAnalyzeImpactRejectsInvalidVerdict(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)
	f.summarizer.analysis = ports.AIAnalysis{OverallEffect: "fantastic", Confidence: 0.9}

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)
	_, _, err = f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)

	log, err := f.svc.AnalyzeImpact(ctx, suggestion.ID(), "")
	require.NoError(t, err)

	// An off-vocabulary verdict is treated like a failure
	assert.Equal(t, valueobjects.AnalysisSourceHeuristic, log.Analysis.Source)
}

func TestAnalyzeImpactAcceptsInconclusiveVerdict(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)
	f.summarizer.analysis = ports.AIAnalysis{
		OverallEffect: valueobjects.EffectInconclusive,
		Confidence:    0.4,
		Summary:       "movement is within normal variation",
		Factors:       []string{"short observation window"},
	}

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)
	_, _, err = f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)

	log, err := f.svc.AnalyzeImpact(ctx, suggestion.ID(), "")
	require.NoError(t, err)

	assert.Equal(t, valueobjects.AnalysisSourceAI, log.Analysis.Source)
	assert.Equal(t, valueobjects.EffectInconclusive, log.Analysis.OverallEffect)
	assert.Equal(t, []string{"short observation window"}, log.Analysis.Factors)
}

func TestAnalyzeImpactRequiresTrackingState(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.AnalyzeImpact(ctx, suggestion.ID(), "")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeInvalidState))
}

func TestAnalyzeImpactNeedsSnapshot(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	// Tracking, but no snapshot captured yet
	_, err = f.svc.AnalyzeImpact(ctx, suggestion.ID(), "")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeNoData))
}

func TestEndTrackingCompletesSuggestion(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	f.now = f.now.AddDate(0, 0, 14)
	done, err := f.svc.EndTracking(ctx, suggestion.ID(), false)
	require.NoError(t, err)

	assert.Equal(t, entities.StatusTracked, done.Status())
	assert.False(t, done.AutoClosed())
	require.NotNil(t, done.FinalMetrics())
	require.NotNil(t, done.TrackingEndedAt())
	assert.Contains(t, f.publisher.eventTypes(), "tracking.completed")

	// Ending twice is an invalid transition
	_, err = f.svc.EndTracking(ctx, suggestion.ID(), false)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeInvalidState))
}

func TestAutoCompleteStale(t *testing.T) {
	ctx := context.Background()
	stale := newAppliedSuggestion(t)
	fresh, err := entities.ReconstructSuggestion(
		testSuggestionID(2), testDomainID(1), testPageID(2),
		"https://example.com/blog", "content", "Expand the intro",
		entities.StatusApplied,
		nil, nil, nil, nil, 0, false, nil, nil, "",
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 1,
	)
	require.NoError(t, err)

	f := newTrackingFixture(t, stale, fresh)

	// stale starts 120 days before the sweep, fresh only 5
	f.now = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	_, err = f.svc.StartTracking(ctx, stale.ID())
	require.NoError(t, err)

	f.now = time.Date(2025, 7, 25, 10, 0, 0, 0, time.UTC)
	_, err = f.svc.StartTracking(ctx, fresh.ID())
	require.NoError(t, err)

	f.now = time.Date(2025, 7, 30, 10, 0, 0, 0, time.UTC)
	completed, err := f.svc.AutoCompleteStale(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, completed)
	assert.Equal(t, entities.StatusTracked, stale.Status())
	assert.True(t, stale.AutoClosed())
	assert.Equal(t, entities.StatusTracking, fresh.Status())
}

func TestAnalyzeImpactRecordsRunType(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)
	_, _, err = f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)

	_, err = f.svc.AnalyzeImpact(ctx, suggestion.ID(), "")
	require.NoError(t, err)
	_, err = f.svc.AnalyzeImpact(ctx, suggestion.ID(), entities.AnalysisScheduled)
	require.NoError(t, err)

	logs, err := f.analysisRepo.ListBySuggestion(ctx, suggestion.ID())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, entities.AnalysisManual, logs[0].AnalysisType)
	assert.Equal(t, entities.AnalysisScheduled, logs[1].AnalysisType)
}

func TestEndTrackingRunsFinalAnalysis(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)
	_, _, err = f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)

	f.now = f.now.AddDate(0, 0, 7)
	done, err := f.svc.EndTracking(ctx, suggestion.ID(), true)
	require.NoError(t, err)

	assert.Equal(t, entities.StatusTracked, done.Status())
	logs, err := f.analysisRepo.ListBySuggestion(ctx, suggestion.ID())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entities.AnalysisFinal, logs[0].AnalysisType)
}

func TestEndTrackingCompletesWhenFinalAnalysisFails(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	// No snapshots exist, so the final analysis cannot run
	done, err := f.svc.EndTracking(ctx, suggestion.ID(), true)
	require.NoError(t, err)

	assert.Equal(t, entities.StatusTracked, done.Status())
	logs, err := f.analysisRepo.ListBySuggestion(ctx, suggestion.ID())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAutoCompleteStaleWindowOverride(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	f.now = time.Date(2025, 7, 25, 10, 0, 0, 0, time.UTC)
	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	// Five days in: inside the 90-day default, outside a 3-day override
	f.now = time.Date(2025, 7, 30, 10, 0, 0, 0, time.UTC)
	completed, err := f.svc.AutoCompleteStale(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, completed)

	completed, err = f.svc.AutoCompleteStale(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.True(t, suggestion.AutoClosed())
}

func TestAutoCompleteStaleRecordsFinalAnalysis(t *testing.T) {
	ctx := context.Background()
	suggestion := newAppliedSuggestion(t)
	f := newTrackingFixture(t, suggestion)

	f.now = time.Date(2025, 7, 25, 10, 0, 0, 0, time.UTC)
	_, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)
	_, _, err = f.svc.CaptureDailySnapshot(ctx, suggestion.ID())
	require.NoError(t, err)

	f.now = time.Date(2025, 7, 30, 10, 0, 0, 0, time.UTC)
	completed, err := f.svc.AutoCompleteStale(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 1, completed)

	// The sweep closes with a final analysis on record
	logs, err := f.analysisRepo.ListBySuggestion(ctx, suggestion.ID())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entities.AnalysisFinal, logs[0].AnalysisType)
	assert.True(t, suggestion.AutoClosed())
}

func TestStartTrackingDomainWideSuggestion(t *testing.T) {
	ctx := context.Background()
	suggestion, err := entities.ReconstructSuggestion(
		testSuggestionID(3), testDomainID(1), valueobjects.PageID{},
		"https://example.com", "sitemap", "Submit an XML sitemap",
		entities.StatusApplied,
		nil, nil, nil, nil, 0, false, nil, nil, "",
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 1,
	)
	require.NoError(t, err)
	f := newTrackingFixture(t, suggestion)

	tracked, err := f.svc.StartTracking(ctx, suggestion.ID())
	require.NoError(t, err)

	// Without a page the baseline comes from the aggregate site reading
	assert.Equal(t, 1, f.analytics.siteCalls)
	assert.Equal(t, 0, f.analytics.pageCalls)
	require.NotNil(t, tracked.Baseline())
	assert.Equal(t, int64(1000), tracked.Baseline().Impressions)

	// Audit scores are per page, so they stay blank
	assert.Equal(t, 0, f.seoStore.calls)
	assert.Nil(t, tracked.Baseline().SEOScore)
}

func TestAutoCompleteStaleDisabledByFlag(t *testing.T) {
	ctx := context.Background()
	f := newTrackingFixture(t)
	f.svc.config.EnableAutoComplete = false

	completed, err := f.svc.AutoCompleteStale(ctx, 0)

	require.NoError(t, err)
	assert.Equal(t, 0, completed)
}
