package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seopilot-backend/domain/config"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
)

func newLayoutService(repo *fakePageRepo) *LayoutService {
	return NewLayoutService(repo, &fakePublisher{}, config.DefaultDomainConfig(), testLogger())
}

func TestComputeLayoutEmptyTree(t *testing.T) {
	svc := newLayoutService(newFakePageRepo())

	positions := svc.ComputeLayout(nil)

	assert.Empty(t, positions)
	assert.Equal(t, valueobjects.BoundingBox{}, svc.BoundingBox(positions))
}

func TestComputeLayoutSingleRoot(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	domainID := testDomainID(1)
	root := testPage(t, 1, domainID, nil, 0)

	svc := newLayoutService(newFakePageRepo(root))
	positions := svc.ComputeLayout([]*entities.Page{root})

	require.Len(t, positions, 1)
	pos := positions[root.ID()]
	assert.Equal(t, cfg.MinXOffset, pos.X)
	assert.Equal(t, 0.0, pos.Y)
}

func TestComputeLayoutCentersParentOverChildren(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	domainID := testDomainID(1)
	root := testPage(t, 1, domainID, nil, 0)
	rootID := root.ID()
	childA := testPage(t, 2, domainID, &rootID, 1)
	childB := testPage(t, 3, domainID, &rootID, 1)

	svc := newLayoutService(newFakePageRepo(root, childA, childB))
	positions := svc.ComputeLayout([]*entities.Page{root, childA, childB})

	require.Len(t, positions, 3)

	posA := positions[childA.ID()]
	posB := positions[childB.ID()]
	assert.Equal(t, cfg.VerticalSpacing, posA.Y)
	assert.Equal(t, cfg.VerticalSpacing, posB.Y)

	// Siblings are spaced by node width plus gap, in ID order
	assert.Equal(t, posA.X+cfg.NodeWidth+cfg.HorizontalSpacing, posB.X)

	// Parent sits at the midpoint of its children, one level up
	rootPos := positions[rootID]
	assert.Equal(t, (posA.X+posB.X)/2, rootPos.X)
	assert.Equal(t, 0.0, rootPos.Y)
}

func TestComputeLayoutRespectsManualPins(t *testing.T) {
	domainID := testDomainID(1)
	root := testPage(t, 1, domainID, nil, 0)
	rootID := root.ID()
	pinned := testPage(t, 2, domainID, &rootID, 1)
	pinned.PinPosition(valueobjects.NewPosition(900, 450))
	auto := testPage(t, 3, domainID, &rootID, 1)

	svc := newLayoutService(newFakePageRepo(root, pinned, auto))
	positions := svc.ComputeLayout([]*entities.Page{root, pinned, auto})

	// The pin is kept verbatim; the auto sibling takes the level cursor
	cfg := config.DefaultDomainConfig()
	assert.Equal(t, valueobjects.NewPosition(900, 450), positions[pinned.ID()])
	assert.Equal(t, valueobjects.NewPosition(cfg.MinXOffset, cfg.VerticalSpacing), positions[auto.ID()])

	// Parent centers over the full sibling spread, pin included
	assert.Equal(t, (900.0+cfg.MinXOffset)/2, positions[rootID].X)
}

func TestComputeLayoutFirstAssignmentWins(t *testing.T) {
	domainID := testDomainID(1)
	root := testPage(t, 1, domainID, nil, 0)
	root.PinPosition(valueobjects.NewPosition(50, 10))
	rootID := root.ID()
	child := testPage(t, 2, domainID, &rootID, 1)

	svc := newLayoutService(newFakePageRepo(root, child))
	positions := svc.ComputeLayout([]*entities.Page{root, child})

	// A pinned parent is never re-centered over its children
	assert.Equal(t, valueobjects.NewPosition(50, 10), positions[rootID])
}

func TestComputeLayoutHandlesOrphans(t *testing.T) {
	domainID := testDomainID(1)
	missingParent := testPageID(99)
	orphan := testPage(t, 2, domainID, &missingParent, 1)

	svc := newLayoutService(newFakePageRepo(orphan))
	positions := svc.ComputeLayout([]*entities.Page{orphan})

	// A node whose parent is missing still gets a position
	require.Len(t, positions, 1)
	_, ok := positions[orphan.ID()]
	assert.True(t, ok)
}

func TestComputeLayoutShiftsToMinOffset(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	domainID := testDomainID(1)
	pinned := testPage(t, 1, domainID, nil, 0)
	pinned.PinPosition(valueobjects.NewPosition(-300, 0))

	svc := newLayoutService(newFakePageRepo(pinned))
	positions := svc.ComputeLayout([]*entities.Page{pinned})

	assert.Equal(t, cfg.MinXOffset, positions[pinned.ID()].X)
}

func TestComputeLayoutIsDeterministic(t *testing.T) {
	domainID := testDomainID(1)
	root := testPage(t, 1, domainID, nil, 0)
	rootID := root.ID()
	pages := []*entities.Page{root}
	for i := 2; i <= 8; i++ {
		pages = append(pages, testPage(t, i, domainID, &rootID, 1))
	}

	svc := newLayoutService(newFakePageRepo(pages...))
	first := svc.ComputeLayout(pages)

	// Same pages in reverse input order produce the same layout
	reversed := make([]*entities.Page, len(pages))
	for i, p := range pages {
		reversed[len(pages)-1-i] = p
	}
	second := svc.ComputeLayout(reversed)

	assert.Equal(t, first, second)
}

func TestBoundingBoxEnclosesAllNodes(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	domainID := testDomainID(1)
	root := testPage(t, 1, domainID, nil, 0)
	rootID := root.ID()
	childA := testPage(t, 2, domainID, &rootID, 1)
	childB := testPage(t, 3, domainID, &rootID, 1)
	pages := []*entities.Page{root, childA, childB}

	svc := newLayoutService(newFakePageRepo(pages...))
	positions := svc.ComputeLayout(pages)
	box := svc.BoundingBox(positions)

	assert.Equal(t, cfg.MinXOffset, box.MinX)
	assert.Equal(t, 0.0, box.MinY)
	assert.Equal(t, cfg.NodeWidth*2+cfg.HorizontalSpacing, box.Width)
	assert.Equal(t, cfg.VerticalSpacing+cfg.NodeHeight, box.Height)
}

func TestGetTreeLayout(t *testing.T) {
	ctx := context.Background()
	domainID := testDomainID(1)
	root := testPage(t, 1, domainID, nil, 0)
	rootID := root.ID()
	child := testPage(t, 2, domainID, &rootID, 1)

	svc := newLayoutService(newFakePageRepo(root, child))
	layout, err := svc.GetTreeLayout(ctx, domainID)

	require.NoError(t, err)
	require.Len(t, layout.Nodes, 2)
	assert.Equal(t, rootID, layout.Nodes[0].PageID)
	assert.Equal(t, 0, layout.Nodes[0].Depth)
	assert.Equal(t, child.ID(), layout.Nodes[1].PageID)
	assert.Greater(t, layout.Bounds.Width, 0.0)
}

func TestUpdatePositionsPinsAndReleases(t *testing.T) {
	ctx := context.Background()
	domainID := testDomainID(1)
	page := testPage(t, 1, domainID, nil, 0)
	repo := newFakePageRepo(page)
	publisher := &fakePublisher{}
	svc := NewLayoutService(repo, publisher, config.DefaultDomainConfig(), testLogger())

	err := svc.UpdatePositions(ctx, domainID, []PositionUpdate{
		{PageID: page.ID(), X: 120, Y: 340},
	})
	require.NoError(t, err)

	saved, err := repo.GetByID(ctx, page.ID())
	require.NoError(t, err)
	pos, pinnedOK := saved.ManualPosition()
	require.True(t, pinnedOK)
	assert.Equal(t, valueobjects.NewPosition(120, 340), pos)
	assert.Contains(t, publisher.eventTypes(), "page.position_pinned")

	err = svc.UpdatePositions(ctx, domainID, []PositionUpdate{
		{PageID: page.ID(), Release: true},
	})
	require.NoError(t, err)
	assert.False(t, saved.HasManualPosition())
}

func TestUpdatePositionsRejectsForeignPage(t *testing.T) {
	ctx := context.Background()
	page := testPage(t, 1, testDomainID(1), nil, 0)
	svc := newLayoutService(newFakePageRepo(page))

	err := svc.UpdatePositions(ctx, testDomainID(2), []PositionUpdate{
		{PageID: page.ID(), X: 1, Y: 1},
	})

	assert.Error(t, err)
}
