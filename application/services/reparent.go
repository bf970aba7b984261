package services

import (
	"context"

	"go.uber.org/zap"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/config"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
	pkgerrors "seopilot-backend/pkg/errors"
)

// ReparentResult reports one successful reparent
type ReparentResult struct {
	PageID      valueobjects.PageID  `json:"page_id"`
	OldParentID *valueobjects.PageID `json:"old_parent_id,omitempty"`
	NewParentID *valueobjects.PageID `json:"new_parent_id,omitempty"`
	NewDepth    int                  `json:"new_depth"`
	MovedPages  int                  `json:"moved_pages"`
}

// BulkReparentItem is one requested move in a bulk operation
type BulkReparentItem struct {
	PageID      valueobjects.PageID
	NewParentID *valueobjects.PageID
}

// BulkReparentFailure reports one rejected move
type BulkReparentFailure struct {
	PageID valueobjects.PageID `json:"page_id"`
	Code   string              `json:"code"`
	Reason string              `json:"reason"`
}

// BulkReparentOutcome is the partial-success result of a bulk reparent:
// valid moves are applied, invalid ones are reported, and one bad item
// never aborts the rest.
type BulkReparentOutcome struct {
	Succeeded []ReparentResult      `json:"succeeded"`
	Failed    []BulkReparentFailure `json:"failed"`
}

// ReparentService moves pages within a site tree. Structural changes to
// one domain are serialized through the domain lock so concurrent moves
// cannot interleave into an inconsistent tree.
type ReparentService struct {
	pageRepo  ports.PageRepository
	lock      ports.DomainLock
	publisher ports.EventPublisher
	config    *config.DomainConfig
	logger    *zap.Logger
}

// NewReparentService creates a reparenting service
func NewReparentService(pageRepo ports.PageRepository, lock ports.DomainLock, publisher ports.EventPublisher, cfg *config.DomainConfig, logger *zap.Logger) *ReparentService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ReparentService{
		pageRepo:  pageRepo,
		lock:      lock,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// Reparent moves a page (and its subtree) under a new parent, or makes
// it a root when newParentID is nil. Depths of the whole moved subtree
// are recomputed and persisted in one batch.
func (s *ReparentService) Reparent(ctx context.Context, pageID valueobjects.PageID, newParentID *valueobjects.PageID) (*ReparentResult, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx, page.DomainID())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to acquire domain lock")
	}
	defer release()

	tree, err := s.loadTree(ctx, page.DomainID())
	if err != nil {
		return nil, err
	}

	result, err := s.reparentInTree(ctx, tree, pageID, newParentID)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, tree, result); err != nil {
		return nil, err
	}

	return result, nil
}

// BulkReparent applies many moves in one pass over the tree. Items are
// validated and applied in order against the evolving tree, so a later
// item sees the moves that preceded it. Failures are collected, not
// fatal; only the pages that actually changed are persisted.
func (s *ReparentService) BulkReparent(ctx context.Context, domainID valueobjects.DomainID, items []BulkReparentItem) (*BulkReparentOutcome, error) {
	if len(items) == 0 {
		return &BulkReparentOutcome{Succeeded: []ReparentResult{}, Failed: []BulkReparentFailure{}}, nil
	}
	if len(items) > s.config.MaxBulkReparentItems {
		return nil, pkgerrors.NewValidationError("too many items in bulk reparent request")
	}

	release, err := s.lock.Acquire(ctx, domainID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to acquire domain lock")
	}
	defer release()

	tree, err := s.loadTree(ctx, domainID)
	if err != nil {
		return nil, err
	}

	outcome := &BulkReparentOutcome{
		Succeeded: []ReparentResult{},
		Failed:    []BulkReparentFailure{},
	}
	for _, item := range items {
		result, err := s.reparentInTree(ctx, tree, item.PageID, item.NewParentID)
		if err != nil {
			outcome.Failed = append(outcome.Failed, failureFromError(item.PageID, err))
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, *result)
	}

	if len(outcome.Succeeded) > 0 {
		changed := make([]*entities.Page, 0, len(tree.pages))
		for _, p := range tree.pages {
			if tree.dirty[p.ID()] {
				changed = append(changed, p)
			}
		}
		if err := s.pageRepo.BulkSave(ctx, changed); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to persist bulk reparent")
		}
		s.publishEvents(ctx, changed)
	}

	s.logger.Info("bulk reparent finished",
		zap.String("domain_id", domainID.String()),
		zap.Int("succeeded", len(outcome.Succeeded)),
		zap.Int("failed", len(outcome.Failed)),
	)

	return outcome, nil
}

// pageTree is an in-memory arena of one domain's pages with an index by
// ID, so validation walks and the depth recompute never touch storage.
type pageTree struct {
	pages []*entities.Page
	index map[valueobjects.PageID]int
	dirty map[valueobjects.PageID]bool
}

func (s *ReparentService) loadTree(ctx context.Context, domainID valueobjects.DomainID) (*pageTree, error) {
	pages, err := s.pageRepo.GetByDomainID(ctx, domainID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load domain pages")
	}

	tree := &pageTree{
		pages: pages,
		index: make(map[valueobjects.PageID]int, len(pages)),
		dirty: make(map[valueobjects.PageID]bool),
	}
	for i, p := range pages {
		tree.index[p.ID()] = i
	}
	return tree, nil
}

func (t *pageTree) get(id valueobjects.PageID) (*entities.Page, bool) {
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return t.pages[i], true
}

// reparentInTree validates and applies one move against the in-memory
// tree, then recomputes depths for the moved subtree.
func (s *ReparentService) reparentInTree(ctx context.Context, tree *pageTree, pageID valueobjects.PageID, newParentID *valueobjects.PageID) (*ReparentResult, error) {
	page, ok := tree.get(pageID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("page")
	}

	newDepth := 0
	if newParentID != nil {
		if newParentID.Equals(pageID) {
			return nil, pkgerrors.NewSelfParentError(pageID.String())
		}

		parent, ok := tree.get(*newParentID)
		if !ok {
			// The target is not in this domain's tree: it is either a
			// page of another site or does not exist at all.
			foreign, err := s.pageRepo.GetByID(ctx, *newParentID)
			if err != nil || foreign == nil {
				return nil, pkgerrors.NewNotFoundError("parent page")
			}
			return nil, pkgerrors.NewCrossTreeError(pageID.String(), newParentID.String())
		}
		if s.isInSubtree(tree, *newParentID, pageID) {
			return nil, pkgerrors.NewCircularRelationshipError(pageID.String(), newParentID.String())
		}
		newDepth = parent.Depth() + 1
	}

	oldParent := page.ParentID()
	if err := page.SetParent(newParentID, newDepth); err != nil {
		return nil, err
	}
	tree.dirty[pageID] = true

	moved := s.recomputeSubtreeDepths(tree, pageID)

	return &ReparentResult{
		PageID:      pageID,
		OldParentID: oldParent,
		NewParentID: newParentID,
		NewDepth:    newDepth,
		MovedPages:  moved,
	}, nil
}

// isInSubtree reports whether candidate sits inside the subtree rooted
// at root, by walking candidate's ancestor chain. A visited set guards
// the walk: stored data with a pre-existing cycle terminates instead of
// looping forever.
func (s *ReparentService) isInSubtree(tree *pageTree, candidate, root valueobjects.PageID) bool {
	visited := make(map[valueobjects.PageID]bool)
	current := candidate

	for {
		if current.Equals(root) {
			return true
		}
		if visited[current] {
			s.logger.Warn("ancestor walk found a cycle in stored tree data",
				zap.String("page_id", current.String()),
			)
			return false
		}
		visited[current] = true

		page, ok := tree.get(current)
		if !ok {
			return false
		}
		parentID := page.ParentID()
		if parentID == nil {
			return false
		}
		current = *parentID
	}
}

// recomputeSubtreeDepths walks the subtree rooted at rootID breadth-
// first over a children adjacency map and rewrites every descendant's
// depth relative to the root's new depth. Returns the number of pages
// whose depth changed, root included.
func (s *ReparentService) recomputeSubtreeDepths(tree *pageTree, rootID valueobjects.PageID) int {
	children := make(map[valueobjects.PageID][]int, len(tree.pages))
	for i, p := range tree.pages {
		if pid := p.ParentID(); pid != nil {
			children[*pid] = append(children[*pid], i)
		}
	}

	rootIdx, ok := tree.index[rootID]
	if !ok {
		return 0
	}

	moved := 1
	visited := map[valueobjects.PageID]bool{rootID: true}
	queue := []int{rootIdx}
	for len(queue) > 0 {
		current := tree.pages[queue[0]]
		queue = queue[1:]

		for _, childIdx := range children[current.ID()] {
			child := tree.pages[childIdx]
			if visited[child.ID()] {
				continue
			}
			visited[child.ID()] = true

			depth := current.Depth() + 1
			if child.Depth() != depth {
				if err := child.SetDepth(depth); err == nil {
					tree.dirty[child.ID()] = true
					moved++
				}
			}
			queue = append(queue, childIdx)
		}
	}

	return moved
}

func (s *ReparentService) persist(ctx context.Context, tree *pageTree, result *ReparentResult) error {
	changed := make([]*entities.Page, 0, result.MovedPages)
	for _, p := range tree.pages {
		if tree.dirty[p.ID()] {
			changed = append(changed, p)
		}
	}
	if err := s.pageRepo.BulkSave(ctx, changed); err != nil {
		return pkgerrors.Wrap(err, "failed to persist reparent")
	}

	s.publishEvents(ctx, changed)

	return nil
}

func (s *ReparentService) publishEvents(ctx context.Context, pages []*entities.Page) {
	if s.publisher == nil || !s.config.EnableEventEmission {
		return
	}
	for _, page := range pages {
		evts := page.GetUncommittedEvents()
		if len(evts) == 0 {
			continue
		}
		if err := s.publisher.Publish(ctx, evts...); err != nil {
			s.logger.Warn("failed to publish page events",
				zap.String("page_id", page.ID().String()),
				zap.Error(err),
			)
			continue
		}
		page.MarkEventsAsCommitted()
	}
}

func failureFromError(pageID valueobjects.PageID, err error) BulkReparentFailure {
	code := string(pkgerrors.ErrorTypeInternal)
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		code = string(appErr.Type)
	}
	return BulkReparentFailure{
		PageID: pageID,
		Code:   code,
		Reason: err.Error(),
	}
}
