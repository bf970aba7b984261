package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/config"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
	pkgerrors "seopilot-backend/pkg/errors"
)

// LayoutNode is one positioned node of a computed tree layout
type LayoutNode struct {
	PageID   valueobjects.PageID   `json:"page_id"`
	URL      string                `json:"url"`
	Title    string                `json:"title"`
	ParentID *valueobjects.PageID  `json:"parent_id,omitempty"`
	Depth    int                   `json:"depth"`
	Position valueobjects.Position `json:"position"`
	Pinned   bool                  `json:"pinned"`
}

// TreeLayout is the full canvas layout for one site tree
type TreeLayout struct {
	Nodes  []LayoutNode             `json:"nodes"`
	Bounds valueobjects.BoundingBox `json:"bounds"`
}

// PositionUpdate pins a page to a canvas position, or releases the pin
// when Release is set.
type PositionUpdate struct {
	PageID  valueobjects.PageID
	X       float64
	Y       float64
	Release bool
}

// LayoutService computes canvas positions for site trees. Placement is
// deterministic for a given set of pages and never fails: malformed
// trees (orphans, odd depths) still get every node a position.
type LayoutService struct {
	pageRepo  ports.PageRepository
	publisher ports.EventPublisher
	config    *config.DomainConfig
	logger    *zap.Logger
}

// NewLayoutService creates a layout service
func NewLayoutService(pageRepo ports.PageRepository, publisher ports.EventPublisher, cfg *config.DomainConfig, logger *zap.Logger) *LayoutService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &LayoutService{
		pageRepo:  pageRepo,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// GetTreeLayout loads a site tree and computes its layout
func (s *LayoutService) GetTreeLayout(ctx context.Context, domainID valueobjects.DomainID) (*TreeLayout, error) {
	pages, err := s.pageRepo.GetByDomainID(ctx, domainID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load pages for layout")
	}

	positions := s.ComputeLayout(pages)

	nodes := make([]LayoutNode, 0, len(pages))
	for _, page := range pages {
		nodes = append(nodes, LayoutNode{
			PageID:   page.ID(),
			URL:      page.URL(),
			Title:    page.Title(),
			ParentID: page.ParentID(),
			Depth:    page.Depth(),
			Position: positions[page.ID()],
			Pinned:   page.HasManualPosition(),
		})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].PageID.String() < nodes[j].PageID.String()
	})

	return &TreeLayout{
		Nodes:  nodes,
		Bounds: s.BoundingBox(positions),
	}, nil
}

// ComputeLayout assigns a canvas position to every page. Levels are
// processed bottom-up so each parent can be centered over its children;
// the first position a node receives wins, whether it came from a
// manual pin or from centering.
func (s *LayoutService) ComputeLayout(pages []*entities.Page) map[valueobjects.PageID]valueobjects.Position {
	positions := make(map[valueobjects.PageID]valueobjects.Position, len(pages))
	if len(pages) == 0 {
		return positions
	}

	byID := make(map[valueobjects.PageID]*entities.Page, len(pages))
	levels := make(map[int][]*entities.Page)
	maxDepth := 0
	for _, page := range pages {
		byID[page.ID()] = page
		depth := page.Depth()
		if depth < 0 {
			depth = 0
		}
		levels[depth] = append(levels[depth], page)
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	// Manual pins are seeded first so placement and centering both
	// treat them as fixed constraints.
	for _, page := range pages {
		if pos, ok := page.ManualPosition(); ok {
			positions[page.ID()] = pos
		}
	}

	for depth := maxDepth; depth >= 0; depth-- {
		level := levels[depth]
		if len(level) == 0 {
			continue
		}
		s.placeLevel(level, depth, byID, positions)
	}

	s.shiftToOrigin(positions)

	return positions
}

// placeLevel positions one depth level and centers the parents above it
func (s *LayoutService) placeLevel(level []*entities.Page, depth int, byID map[valueobjects.PageID]*entities.Page, positions map[valueobjects.PageID]valueobjects.Position) {
	// Siblings are grouped by parent and groups are ordered by parent
	// ID so the layout is stable across runs.
	groups := make(map[string][]*entities.Page)
	var groupKeys []string
	for _, page := range level {
		key := ""
		if pid := page.ParentID(); pid != nil {
			key = pid.String()
		}
		if _, seen := groups[key]; !seen {
			groupKeys = append(groupKeys, key)
		}
		groups[key] = append(groups[key], page)
	}
	sort.Strings(groupKeys)

	y := float64(depth) * s.config.VerticalSpacing
	cursor := s.config.MinXOffset
	step := s.config.NodeWidth + s.config.HorizontalSpacing

	for _, key := range groupKeys {
		siblings := groups[key]
		sort.Slice(siblings, func(i, j int) bool {
			return siblings[i].ID().String() < siblings[j].ID().String()
		})

		groupMinX := 0.0
		groupMaxX := 0.0
		placed := false
		for _, page := range siblings {
			pos, ok := positions[page.ID()]
			if !ok {
				pos = valueobjects.NewPosition(cursor, y)
				positions[page.ID()] = pos
				cursor += step
			}
			if !placed || pos.X < groupMinX {
				groupMinX = pos.X
			}
			if !placed || pos.X > groupMaxX {
				groupMaxX = pos.X
			}
			placed = true
		}

		if key == "" || !placed {
			continue
		}
		parentID, err := valueobjects.NewPageIDFromString(key)
		if err != nil {
			continue
		}
		if _, done := positions[parentID]; done {
			// First assignment wins: a pinned parent, or one already
			// centered over another child group, keeps its position.
			continue
		}
		parent, known := byID[parentID]
		if !known {
			// Orphan group: the parent is not part of this tree
			continue
		}
		parentY := float64(parent.Depth()) * s.config.VerticalSpacing
		positions[parentID] = valueobjects.NewPosition((groupMinX+groupMaxX)/2, parentY)
	}
}

// shiftToOrigin translates the whole layout so its leftmost node sits
// at the configured minimum x offset.
func (s *LayoutService) shiftToOrigin(positions map[valueobjects.PageID]valueobjects.Position) {
	if len(positions) == 0 {
		return
	}

	first := true
	minX := 0.0
	for _, pos := range positions {
		if first || pos.X < minX {
			minX = pos.X
			first = false
		}
	}

	dx := s.config.MinXOffset - minX
	if dx == 0 {
		return
	}
	for id, pos := range positions {
		positions[id] = pos.Translate(dx, 0)
	}
}

// BoundingBox returns the rectangle enclosing all positioned nodes.
// An empty layout yields a zero box.
func (s *LayoutService) BoundingBox(positions map[valueobjects.PageID]valueobjects.Position) valueobjects.BoundingBox {
	if len(positions) == 0 {
		return valueobjects.BoundingBox{}
	}

	first := true
	var minX, minY, maxX, maxY float64
	for _, pos := range positions {
		if first {
			minX, maxX = pos.X, pos.X
			minY, maxY = pos.Y, pos.Y
			first = false
			continue
		}
		if pos.X < minX {
			minX = pos.X
		}
		if pos.X > maxX {
			maxX = pos.X
		}
		if pos.Y < minY {
			minY = pos.Y
		}
		if pos.Y > maxY {
			maxY = pos.Y
		}
	}

	return valueobjects.BoundingBox{
		MinX:   minX,
		MinY:   minY,
		Width:  maxX - minX + s.config.NodeWidth,
		Height: maxY - minY + s.config.NodeHeight,
	}
}

// UpdatePositions pins or releases manual positions for pages of one
// domain. Pages outside the domain are rejected.
func (s *LayoutService) UpdatePositions(ctx context.Context, domainID valueobjects.DomainID, updates []PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	changed := make([]*entities.Page, 0, len(updates))
	for _, update := range updates {
		page, err := s.pageRepo.GetByID(ctx, update.PageID)
		if err != nil {
			return err
		}
		if !page.DomainID().Equals(domainID) {
			return pkgerrors.NewValidationError("page does not belong to this domain")
		}

		if update.Release {
			page.ReleasePosition()
		} else {
			page.PinPosition(valueobjects.NewPosition(update.X, update.Y))
		}
		changed = append(changed, page)
	}

	if err := s.pageRepo.BulkSave(ctx, changed); err != nil {
		return pkgerrors.Wrap(err, "failed to save position updates")
	}

	s.publishEvents(ctx, changed)

	return nil
}

func (s *LayoutService) publishEvents(ctx context.Context, pages []*entities.Page) {
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
