package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"seopilot-backend/application/commands"
	"seopilot-backend/application/commands/bus"
	commandhandlers "seopilot-backend/application/commands/handlers"
	"seopilot-backend/application/ports"
	"seopilot-backend/application/queries"
	querybus "seopilot-backend/application/queries/bus"
	queryhandlers "seopilot-backend/application/queries/handlers"
	"seopilot-backend/application/services"
	domainconfig "seopilot-backend/domain/config"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
	"seopilot-backend/domain/events"
)

// In-memory ports so the full command/query wiring runs without AWS.

type memPageRepo struct {
	mu    sync.Mutex
	pages map[valueobjects.PageID]*entities.Page
}

func newMemPageRepo() *memPageRepo {
	return &memPageRepo{pages: make(map[valueobjects.PageID]*entities.Page)}
}

func (r *memPageRepo) GetByID(ctx context.Context, id valueobjects.PageID) (*entities.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[id]
	if !ok {
		return nil, fmt.Errorf("page not found: %s", id.String())
	}
	return page, nil
}

func (r *memPageRepo) GetByDomainID(ctx context.Context, domainID valueobjects.DomainID) ([]*entities.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pages []*entities.Page
	for _, page := range r.pages {
		if page.DomainID().Equals(domainID) {
			pages = append(pages, page)
		}
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].ID().String() < pages[j].ID().String()
	})
	return pages, nil
}

func (r *memPageRepo) Save(ctx context.Context, page *entities.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[page.ID()] = page
	return nil
}

func (r *memPageRepo) BulkSave(ctx context.Context, pages []*entities.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, page := range pages {
		r.pages[page.ID()] = page
	}
	return nil
}

func (r *memPageRepo) Delete(ctx context.Context, id valueobjects.PageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pages, id)
	return nil
}

type memSuggestionRepo struct {
	mu          sync.Mutex
	suggestions map[valueobjects.SuggestionID]*entities.Suggestion
}

func newMemSuggestionRepo() *memSuggestionRepo {
	return &memSuggestionRepo{suggestions: make(map[valueobjects.SuggestionID]*entities.Suggestion)}
}

func (r *memSuggestionRepo) GetByID(ctx context.Context, id valueobjects.SuggestionID) (*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suggestions[id]
	if !ok {
		return nil, fmt.Errorf("suggestion not found: %s", id.String())
	}
	return s, nil
}

func (r *memSuggestionRepo) ListByDomain(ctx context.Context, domainID valueobjects.DomainID, limit, offset int) ([]*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Suggestion
	for _, s := range r.suggestions {
		if s.DomainID().Equals(domainID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSuggestionRepo) ListByStatus(ctx context.Context, status entities.SuggestionStatus, limit int) ([]*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Suggestion
	for _, s := range r.suggestions {
		if s.Status() == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSuggestionRepo) ListTrackingStartedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Suggestion
	for _, s := range r.suggestions {
		started := s.TrackingStartedAt()
		if s.IsTracking() && started != nil && started.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSuggestionRepo) Save(ctx context.Context, suggestion *entities.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions[suggestion.ID()] = suggestion
	return nil
}

type memSnapshotRepo struct {
	mu        sync.Mutex
	snapshots []entities.TrackingSnapshot
}

func (r *memSnapshotRepo) key(id valueobjects.SuggestionID, date string) string {
	return id.String() + "#" + date
}

func (r *memSnapshotRepo) Insert(ctx context.Context, snapshot entities.TrackingSnapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.snapshots {
		if r.key(existing.SuggestionID, existing.SnapshotDate) == r.key(snapshot.SuggestionID, snapshot.SnapshotDate) {
			return false, nil
		}
	}
	r.snapshots = append(r.snapshots, snapshot)
	return true, nil
}

func (r *memSnapshotRepo) GetByDate(ctx context.Context, suggestionID valueobjects.SuggestionID, date string) (*entities.TrackingSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snapshot := range r.snapshots {
		if snapshot.SuggestionID.Equals(suggestionID) && snapshot.SnapshotDate == date {
			found := snapshot
			return &found, nil
		}
	}
	return nil, fmt.Errorf("snapshot not found")
}

func (r *memSnapshotRepo) ListBySuggestion(ctx context.Context, suggestionID valueobjects.SuggestionID) ([]entities.TrackingSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.TrackingSnapshot
	for _, snapshot := range r.snapshots {
		if snapshot.SuggestionID.Equals(suggestionID) {
			out = append(out, snapshot)
		}
	}
	return out, nil
}

type memAnalysisRepo struct {
	mu   sync.Mutex
	logs []entities.EffectivenessLog
}

func (r *memAnalysisRepo) Append(ctx context.Context, log entities.EffectivenessLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *memAnalysisRepo) ListBySuggestion(ctx context.Context, suggestionID valueobjects.SuggestionID) ([]entities.EffectivenessLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.EffectivenessLog
	for _, log := range r.logs {
		if log.SuggestionID.Equals(suggestionID) {
			out = append(out, log)
		}
	}
	return out, nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *memPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *memPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.GetEventType())
	}
	return types
}

type memLock struct{}

func (memLock) Acquire(ctx context.Context, domainID valueobjects.DomainID) (func(), error) {
	return func() {}, nil
}

type fixedAnalytics struct{ traffic ports.PageTraffic }

func (f fixedAnalytics) PageTraffic(ctx context.Context, siteURL, pageURL string, from, to time.Time) (ports.PageTraffic, error) {
	return f.traffic, nil
}

func (f fixedAnalytics) SiteTraffic(ctx context.Context, siteURL string, from, to time.Time) (ports.PageTraffic, error) {
	return f.traffic, nil
}

type fixedSEOStore struct{ scores ports.AuditScores }

func (f fixedSEOStore) LatestScores(ctx context.Context, pageURL string) (ports.AuditScores, error) {
	return f.scores, nil
}

type fixedSummarizer struct{ analysis ports.AIAnalysis }

func (f fixedSummarizer) AnalyzeImpact(ctx context.Context, payload []byte) (ports.AIAnalysis, error) {
	return f.analysis, nil
}

// stack wires mem ports through the real services and both buses.
type stack struct {
	commandBus     *bus.CommandBus
	queryBus       *querybus.QueryBus
	pageRepo       *memPageRepo
	suggestionRepo *memSuggestionRepo
	snapshotRepo   *memSnapshotRepo
	analysisRepo   *memAnalysisRepo
	publisher      *memPublisher
	analytics      *fixedAnalytics
}

func newStack(t *testing.T) *stack {
	t.Helper()

	logger := zap.NewNop()
	cfg := domainconfig.DefaultDomainConfig()

	pageRepo := newMemPageRepo()
	suggestionRepo := newMemSuggestionRepo()
	snapshotRepo := &memSnapshotRepo{}
	analysisRepo := &memAnalysisRepo{}
	publisher := &memPublisher{}
	seo := 70.0
	analytics := &fixedAnalytics{traffic: ports.PageTraffic{Impressions: 1000, Clicks: 50, CTR: 5.0, AvgPosition: 12.0}}
	seoStore := fixedSEOStore{scores: ports.AuditScores{SEOScore: &seo}}
	summarizer := fixedSummarizer{analysis: ports.AIAnalysis{
		OverallEffect: valueobjects.EffectPositive,
		Confidence:    0.8,
		Summary:       "clicks and impressions are trending up",
	}}

	layoutService := services.NewLayoutService(pageRepo, publisher, cfg, logger)
	reparentService := services.NewReparentService(pageRepo, memLock{}, publisher, cfg, logger)
	trackingService := services.NewTrackingService(
		suggestionRepo, snapshotRepo, analysisRepo,
		analytics, seoStore, summarizer,
		publisher, cfg, time.Second, logger,
	)

	commandBus := bus.NewCommandBus()
	require.NoError(t, commandBus.Register(commands.ReparentPageCommand{}, commandhandlers.NewReparentPageHandler(reparentService)))
	require.NoError(t, commandBus.Register(commands.BulkReparentCommand{}, commandhandlers.NewBulkReparentHandler(reparentService)))
	require.NoError(t, commandBus.Register(commands.UpdatePagePositionsCommand{}, commandhandlers.NewUpdatePositionsHandler(layoutService)))
	require.NoError(t, commandBus.Register(commands.StartTrackingCommand{}, commandhandlers.NewStartTrackingHandler(trackingService)))
	require.NoError(t, commandBus.Register(commands.CaptureSnapshotCommand{}, commandhandlers.NewCaptureSnapshotHandler(trackingService)))
	require.NoError(t, commandBus.Register(commands.AnalyzeImpactCommand{}, commandhandlers.NewAnalyzeImpactHandler(trackingService)))
	require.NoError(t, commandBus.Register(commands.EndTrackingCommand{}, commandhandlers.NewEndTrackingHandler(trackingService)))

	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryBus.Register(queries.GetTreeLayoutQuery{}, queryhandlers.NewGetTreeLayoutHandler(layoutService)))
	require.NoError(t, queryBus.Register(queries.GetSuggestionQuery{}, queryhandlers.NewGetSuggestionHandler(suggestionRepo)))
	require.NoError(t, queryBus.Register(queries.GetSuggestionTimelineQuery{}, queryhandlers.NewGetSuggestionTimelineHandler(suggestionRepo, snapshotRepo, analysisRepo)))

	return &stack{
		commandBus:     commandBus,
		queryBus:       queryBus,
		pageRepo:       pageRepo,
		suggestionRepo: suggestionRepo,
		snapshotRepo:   snapshotRepo,
		analysisRepo:   analysisRepo,
		publisher:      publisher,
		analytics:      analytics,
	}
}

func TestTrackingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	domainID := valueobjects.NewDomainID()
	pageID := valueobjects.NewPageID()
	suggestion, err := entities.NewSuggestion(domainID, pageID, "https://example.com/pricing", "meta_description", "Rewrite the meta description")
	require.NoError(t, err)
	require.NoError(t, s.suggestionRepo.Save(ctx, suggestion))
	id := suggestion.ID().String()

	// Start tracking: the baseline comes from the live collaborators.
	result, err := s.commandBus.Send(ctx, commands.StartTrackingCommand{SuggestionID: id})
	require.NoError(t, err)
	started, ok := result.(*entities.Suggestion)
	require.True(t, ok)
	assert.Equal(t, entities.StatusTracking, started.Status())
	require.NotNil(t, started.Baseline())
	assert.Equal(t, int64(1000), started.Baseline().Impressions)

	// Metrics improve before the first reading.
	s.analytics.traffic = ports.PageTraffic{Impressions: 1400, Clicks: 84, CTR: 6.0, AvgPosition: 9.5}

	// First snapshot of the day is created; the second is a no-op.
	result, err = s.commandBus.Send(ctx, commands.CaptureSnapshotCommand{SuggestionID: id})
	require.NoError(t, err)
	first, ok := result.(*commandhandlers.SnapshotResult)
	require.True(t, ok)
	assert.True(t, first.Created)
	assert.Equal(t, 1, first.Snapshot.DayNumber)

	result, err = s.commandBus.Send(ctx, commands.CaptureSnapshotCommand{SuggestionID: id})
	require.NoError(t, err)
	second := result.(*commandhandlers.SnapshotResult)
	assert.False(t, second.Created)
	assert.Len(t, s.snapshotRepo.snapshots, 1)

	// The analysis compares the stored reading to the baseline and runs
	// through the AI collaborator.
	result, err = s.commandBus.Send(ctx, commands.AnalyzeImpactCommand{SuggestionID: id})
	require.NoError(t, err)
	log, ok := result.(*entities.EffectivenessLog)
	require.True(t, ok)
	assert.Equal(t, valueobjects.AnalysisSourceAI, log.Analysis.Source)
	assert.Equal(t, valueobjects.EffectPositive, log.Analysis.OverallEffect)
	assert.Equal(t, entities.AnalysisManual, log.AnalysisType)
	assert.Greater(t, log.Effectiveness, 50.0)

	// The timeline query sees the snapshot and the analysis.
	result, err = s.queryBus.Ask(ctx, queries.GetSuggestionTimelineQuery{SuggestionID: id})
	require.NoError(t, err)
	timeline, ok := result.(*queries.GetSuggestionTimelineResult)
	require.True(t, ok)
	assert.Len(t, timeline.Snapshots, 1)
	assert.Len(t, timeline.Analyses, 1)
	require.NotNil(t, timeline.Baseline)
	assert.Equal(t, int64(1000), timeline.Baseline.Impressions)

	// End tracking freezes the final reading.
	result, err = s.commandBus.Send(ctx, commands.EndTrackingCommand{SuggestionID: id})
	require.NoError(t, err)
	ended := result.(*entities.Suggestion)
	assert.Equal(t, entities.StatusTracked, ended.Status())
	require.NotNil(t, ended.FinalMetrics())
	assert.Equal(t, int64(1400), ended.FinalMetrics().Impressions)

	assert.Contains(t, s.publisher.eventTypes(), "tracking.started")
	assert.Contains(t, s.publisher.eventTypes(), "tracking.snapshot_captured")
	assert.Contains(t, s.publisher.eventTypes(), "tracking.impact_analyzed")
	assert.Contains(t, s.publisher.eventTypes(), "tracking.completed")

	// A second start on a completed suggestion is rejected.
	_, err = s.commandBus.Send(ctx, commands.StartTrackingCommand{SuggestionID: id})
	assert.Error(t, err)
}

func TestReparentAndLayoutThroughBuses(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	domainID := valueobjects.NewDomainID()

	root, err := entities.NewPage(domainID, "https://example.com/", "Home")
	require.NoError(t, err)
	child, err := entities.NewPage(domainID, "https://example.com/docs", "Docs")
	require.NoError(t, err)
	require.NoError(t, child.SetParent(idPtr(root.ID()), 1))
	leaf, err := entities.NewPage(domainID, "https://example.com/docs/api", "API")
	require.NoError(t, err)
	require.NoError(t, leaf.SetParent(idPtr(child.ID()), 2))

	for _, page := range []*entities.Page{root, child, leaf} {
		page.MarkEventsAsCommitted()
		require.NoError(t, s.pageRepo.Save(ctx, page))
	}

	// Move the leaf directly under the root.
	result, err := s.commandBus.Send(ctx, commands.ReparentPageCommand{
		PageID:      leaf.ID().String(),
		NewParentID: strPtr(root.ID().String()),
	})
	require.NoError(t, err)
	moved, ok := result.(*services.ReparentResult)
	require.True(t, ok)
	assert.Equal(t, 1, moved.NewDepth)

	// The layout reflects the new structure.
	result, err = s.queryBus.Ask(ctx, queries.GetTreeLayoutQuery{DomainID: domainID.String()})
	require.NoError(t, err)
	layout, ok := result.(*services.TreeLayout)
	require.True(t, ok)
	require.Len(t, layout.Nodes, 3)
	for _, node := range layout.Nodes {
		if node.PageID.Equals(leaf.ID()) {
			assert.Equal(t, 1, node.Depth)
		}
	}
	assert.Contains(t, s.publisher.eventTypes(), "page.reparented")
}

func idPtr(id valueobjects.PageID) *valueobjects.PageID { return &id }
func strPtr(s string) *string                           { return &s }
