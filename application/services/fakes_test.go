package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
	"seopilot-backend/domain/events"
	pkgerrors "seopilot-backend/pkg/errors"
)

// testPageID builds a deterministic UUID so ordering in assertions is stable
func testPageID(n int) valueobjects.PageID {
	id, err := valueobjects.NewPageIDFromString(fmt.Sprintf("00000000-0000-4000-8000-%012d", n))
	if err != nil {
		panic(err)
	}
	return id
}

func testDomainID(n int) valueobjects.DomainID {
	id, err := valueobjects.NewDomainIDFromString(fmt.Sprintf("11111111-0000-4000-8000-%012d", n))
	if err != nil {
		panic(err)
	}
	return id
}

func testSuggestionID(n int) valueobjects.SuggestionID {
	id, err := valueobjects.NewSuggestionIDFromString(fmt.Sprintf("22222222-0000-4000-8000-%012d", n))
	if err != nil {
		panic(err)
	}
	return id
}

func testPage(t testingFatalf, seq int, domainID valueobjects.DomainID, parent *valueobjects.PageID, depth int) *entities.Page {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	page, err := entities.ReconstructPage(
		testPageID(seq), domainID,
		fmt.Sprintf("https://example.com/page-%d", seq),
		fmt.Sprintf("Page %d", seq),
		parent, depth,
		false, nil, nil,
		now, now, 1,
	)
	if err != nil {
		t.Fatalf("failed to build test page: %v", err)
	}
	return page
}

type testingFatalf interface {
	Fatalf(format string, args ...interface{})
}

// fakePageRepo is an in-memory PageRepository
type fakePageRepo struct {
	mu    sync.Mutex
	pages map[valueobjects.PageID]*entities.Page

	bulkSaves int
	failSave  error
}

func newFakePageRepo(pages ...*entities.Page) *fakePageRepo {
	repo := &fakePageRepo{pages: make(map[valueobjects.PageID]*entities.Page)}
	for _, p := range pages {
		repo.pages[p.ID()] = p
	}
	return repo
}

func (r *fakePageRepo) GetByID(ctx context.Context, id valueobjects.PageID) (*entities.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("page")
	}
	return page, nil
}

func (r *fakePageRepo) GetByDomainID(ctx context.Context, domainID valueobjects.DomainID) ([]*entities.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Page
	for _, p := range r.pages {
		if p.DomainID().Equals(domainID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePageRepo) Save(ctx context.Context, page *entities.Page) error {
	if r.failSave != nil {
		return r.failSave
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[page.ID()] = page
	return nil
}

func (r *fakePageRepo) BulkSave(ctx context.Context, pages []*entities.Page) error {
	if r.failSave != nil {
		return r.failSave
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkSaves++
	for _, p := range pages {
		r.pages[p.ID()] = p
	}
	return nil
}

func (r *fakePageRepo) Delete(ctx context.Context, id valueobjects.PageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pages, id)
	return nil
}

// fakeSuggestionRepo is an in-memory SuggestionRepository
type fakeSuggestionRepo struct {
	mu          sync.Mutex
	suggestions map[valueobjects.SuggestionID]*entities.Suggestion
}

func newFakeSuggestionRepo(suggestions ...*entities.Suggestion) *fakeSuggestionRepo {
	repo := &fakeSuggestionRepo{suggestions: make(map[valueobjects.SuggestionID]*entities.Suggestion)}
	for _, s := range suggestions {
		repo.suggestions[s.ID()] = s
	}
	return repo
}

func (r *fakeSuggestionRepo) GetByID(ctx context.Context, id valueobjects.SuggestionID) (*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suggestions[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("suggestion")
	}
	return s, nil
}

func (r *fakeSuggestionRepo) ListByDomain(ctx context.Context, domainID valueobjects.DomainID, limit, offset int) ([]*entities.Suggestion, error) {
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

func (r *fakeSuggestionRepo) ListByStatus(ctx context.Context, status entities.SuggestionStatus, limit int) ([]*entities.Suggestion, error) {
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

func (r *fakeSuggestionRepo) ListTrackingStartedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Suggestion
	for _, s := range r.suggestions {
		started := s.TrackingStartedAt()
		if s.Status() == entities.StatusTracking && started != nil && started.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSuggestionRepo) Save(ctx context.Context, suggestion *entities.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions[suggestion.ID()] = suggestion
	return nil
}

// fakeSnapshotRepo enforces the one-snapshot-per-day rule the way the
// storage layer does, via the (suggestion, date) key.
type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string]entities.TrackingSnapshot
	order     []string
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[string]entities.TrackingSnapshot)}
}

func snapshotKey(id valueobjects.SuggestionID, date string) string {
	return id.String() + "#" + date
}

func (r *fakeSnapshotRepo) Insert(ctx context.Context, snapshot entities.TrackingSnapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := snapshotKey(snapshot.SuggestionID, snapshot.SnapshotDate)
	if _, exists := r.snapshots[key]; exists {
		return false, nil
	}
	r.snapshots[key] = snapshot
	r.order = append(r.order, key)
	return true, nil
}

func (r *fakeSnapshotRepo) GetByDate(ctx context.Context, suggestionID valueobjects.SuggestionID, date string) (*entities.TrackingSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snapshots[snapshotKey(suggestionID, date)]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("snapshot")
	}
	return &snap, nil
}

func (r *fakeSnapshotRepo) ListBySuggestion(ctx context.Context, suggestionID valueobjects.SuggestionID) ([]entities.TrackingSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.TrackingSnapshot
	for _, key := range r.order {
		snap := r.snapshots[key]
		if snap.SuggestionID.Equals(suggestionID) {
			out = append(out, snap)
		}
	}
	return out, nil
}

// fakeAnalysisRepo is an in-memory AnalysisLogRepository
type fakeAnalysisRepo struct {
	mu   sync.Mutex
	logs []entities.EffectivenessLog
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{}
}

func (r *fakeAnalysisRepo) Append(ctx context.Context, log entities.EffectivenessLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeAnalysisRepo) ListBySuggestion(ctx context.Context, suggestionID valueobjects.SuggestionID) ([]entities.EffectivenessLog, error) {
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

// fakePublisher records published events
type fakePublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *fakePublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.GetEventType()
	}
	return out
}

// fakeLock is a no-op DomainLock that counts acquisitions
type fakeLock struct {
	mu       sync.Mutex
	acquired int
}

func (l *fakeLock) Acquire(ctx context.Context, domainID valueobjects.DomainID) (func(), error) {
	l.mu.Lock()
	l.acquired++
	l.mu.Unlock()
	return func() {}, nil
}

// fakeAnalytics returns a fixed traffic reading, or an error
type fakeAnalytics struct {
	traffic   ports.PageTraffic
	err       error
	pageCalls int
	siteCalls int
}

func (f *fakeAnalytics) PageTraffic(ctx context.Context, siteURL, pageURL string, from, to time.Time) (ports.PageTraffic, error) {
	f.pageCalls++
	if f.err != nil {
		return ports.PageTraffic{}, f.err
	}
	return f.traffic, nil
}

func (f *fakeAnalytics) SiteTraffic(ctx context.Context, siteURL string, from, to time.Time) (ports.PageTraffic, error) {
	f.siteCalls++
	if f.err != nil {
		return ports.PageTraffic{}, f.err
	}
	return f.traffic, nil
}

// fakeSEOStore returns fixed audit scores, or an error
type fakeSEOStore struct {
	scores ports.AuditScores
	err    error
	calls  int
}

func (f *fakeSEOStore) LatestScores(ctx context.Context, pageURL string) (ports.AuditScores, error) {
	f.calls++
	if f.err != nil {
		return ports.AuditScores{}, f.err
	}
	return f.scores, nil
}

// fakeSummarizer returns a fixed judgement, or an error
type fakeSummarizer struct {
	analysis ports.AIAnalysis
	err      error
	calls    int
}

func (f *fakeSummarizer) AnalyzeImpact(ctx context.Context, payload []byte) (ports.AIAnalysis, error) {
	f.calls++
	if f.err != nil {
		return ports.AIAnalysis{}, f.err
	}
	return f.analysis, nil
}

var errUnavailable = errors.New("collaborator unavailable")

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func floatPtr(v float64) *float64 {
	return &v
}
