package entities

import (
	"time"

	"seopilot-backend/domain/core/valueobjects"
	"seopilot-backend/domain/events"
	pkgerrors "seopilot-backend/pkg/errors"
	"seopilot-backend/pkg/utils"
)

// Page is the entity representing one page of a managed site tree.
// This is a rich domain model with encapsulated business logic.
type Page struct {
	// Private fields ensure encapsulation
	id       valueobjects.PageID
	domainID valueobjects.DomainID
	url      string
	title    string

	parentID *valueobjects.PageID
	depth    int

	manualPosition bool
	manualX        *float64
	manualY        *float64

	createdAt time.Time
	updatedAt time.Time
	version   int

	// Domain events that occurred during this aggregate's lifetime
	events []events.DomainEvent
}

// NewPage creates a new page with full business rule validation
func NewPage(domainID valueobjects.DomainID, url, title string) (*Page, error) {
	if domainID.IsZero() {
		return nil, pkgerrors.NewValidationError("domainID cannot be empty")
	}
	url = utils.NormalizeURL(url)
	if url == "" {
		return nil, pkgerrors.NewValidationError("url cannot be empty")
	}

	now := time.Now()
	return &Page{
		id:        valueobjects.NewPageID(),
		domainID:  domainID,
		url:       url,
		title:     title,
		depth:     0,
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}, nil
}

// ReconstructPage reconstructs a page from repository data with preserved timestamps
func ReconstructPage(
	id valueobjects.PageID,
	domainID valueobjects.DomainID,
	url, title string,
	parentID *valueobjects.PageID,
	depth int,
	manualPosition bool,
	manualX, manualY *float64,
	createdAt, updatedAt time.Time,
	version int,
) (*Page, error) {
	if domainID.IsZero() {
		return nil, pkgerrors.NewValidationError("domainID cannot be empty")
	}
	if depth < 0 {
		depth = 0
	}

	return &Page{
		id:             id,
		domainID:       domainID,
		url:            url,
		title:          title,
		parentID:       parentID,
		depth:          depth,
		manualPosition: manualPosition,
		manualX:        manualX,
		manualY:        manualY,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		version:        version,
		events:         []events.DomainEvent{},
	}, nil
}

// ID returns the page's unique identifier
func (p *Page) ID() valueobjects.PageID {
	return p.id
}

// DomainID returns the site domain this page belongs to
func (p *Page) DomainID() valueobjects.DomainID {
	return p.domainID
}

// URL returns the page URL
func (p *Page) URL() string {
	return p.url
}

// Title returns the page title
func (p *Page) Title() string {
	return p.title
}

// ParentID returns the parent page ID, or nil for a root page
func (p *Page) ParentID() *valueobjects.PageID {
	if p.parentID == nil {
		return nil
	}
	id := *p.parentID
	return &id
}

// Depth returns the tree depth; roots are at depth 0
func (p *Page) Depth() int {
	return p.depth
}

// IsRoot reports whether the page has no parent
func (p *Page) IsRoot() bool {
	return p.parentID == nil
}

// HasManualPosition reports whether the page is pinned on the canvas
func (p *Page) HasManualPosition() bool {
	return p.manualPosition && p.manualX != nil && p.manualY != nil
}

// ManualPosition returns the pinned canvas position and whether one is set
func (p *Page) ManualPosition() (valueobjects.Position, bool) {
	if !p.HasManualPosition() {
		return valueobjects.Position{}, false
	}
	return valueobjects.NewPosition(*p.manualX, *p.manualY), true
}

// Version returns the page's version for optimistic locking
func (p *Page) Version() int {
	return p.version
}

// CreatedAt returns when the page was created
func (p *Page) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt returns when the page was last updated
func (p *Page) UpdatedAt() time.Time {
	return p.updatedAt
}

// SetParent moves the page under a new parent at the given depth.
// Tree-level validation (same domain, no cycles) happens in the
// reparenting service; the entity only guards local invariants.
func (p *Page) SetParent(parentID *valueobjects.PageID, depth int) error {
	if parentID != nil && parentID.Equals(p.id) {
		return pkgerrors.NewSelfParentError(p.id.String())
	}
	if depth < 0 {
		return pkgerrors.NewValidationError("depth cannot be negative")
	}

	oldParent := p.parentID
	if parentID == nil {
		p.parentID = nil
	} else {
		id := *parentID
		p.parentID = &id
	}
	p.depth = depth
	p.updatedAt = time.Now()
	p.version++

	p.addEvent(events.NewPageReparented(p.id, p.domainID, oldParent, parentID, depth, p.updatedAt))

	return nil
}

// SetDepth updates the depth without changing the parent. Used when an
// ancestor moved and the whole subtree gets recomputed depths.
func (p *Page) SetDepth(depth int) error {
	if depth < 0 {
		return pkgerrors.NewValidationError("depth cannot be negative")
	}
	if depth == p.depth {
		return nil
	}

	p.depth = depth
	p.updatedAt = time.Now()
	p.version++

	return nil
}

// PinPosition pins the page to a manual canvas position
func (p *Page) PinPosition(position valueobjects.Position) {
	x, y := position.X, position.Y
	p.manualPosition = true
	p.manualX = &x
	p.manualY = &y
	p.updatedAt = time.Now()
	p.version++

	p.addEvent(events.NewPagePositionPinned(p.id, position, p.updatedAt))
}

// ReleasePosition removes the manual pin so the layout engine places the page
func (p *Page) ReleasePosition() {
	if !p.manualPosition {
		return
	}

	p.manualPosition = false
	p.manualX = nil
	p.manualY = nil
	p.updatedAt = time.Now()
	p.version++

	p.addEvent(events.NewPagePositionReleased(p.id, p.updatedAt))
}

// GetUncommittedEvents returns all uncommitted domain events
func (p *Page) GetUncommittedEvents() []events.DomainEvent {
	return p.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (p *Page) MarkEventsAsCommitted() {
	p.events = []events.DomainEvent{}
}

// addEvent adds a domain event to the uncommitted list
func (p *Page) addEvent(event events.DomainEvent) {
	p.events = append(p.events, event)
}
