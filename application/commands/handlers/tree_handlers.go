package handlers

import (
	"context"
	"fmt"

	"seopilot-backend/application/commands"
	"seopilot-backend/application/commands/bus"
	"seopilot-backend/application/services"
	"seopilot-backend/domain/core/valueobjects"
)

// ReparentPageHandler handles single-page reparent commands
type ReparentPageHandler struct {
	reparentService *services.ReparentService
}

// NewReparentPageHandler creates a new handler instance
func NewReparentPageHandler(reparentService *services.ReparentService) *ReparentPageHandler {
	return &ReparentPageHandler{reparentService: reparentService}
}

// Handle executes the reparent command
func (h *ReparentPageHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.ReparentPageCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	pageID, err := valueobjects.NewPageIDFromString(c.PageID)
	if err != nil {
		return nil, fmt.Errorf("invalid page ID: %w", err)
	}

	newParentID, err := optionalPageID(c.NewParentID)
	if err != nil {
		return nil, fmt.Errorf("invalid parent ID: %w", err)
	}

	return h.reparentService.Reparent(ctx, pageID, newParentID)
}

// BulkReparentHandler handles bulk reparent commands
type BulkReparentHandler struct {
	reparentService *services.ReparentService
}

// NewBulkReparentHandler creates a new handler instance
func NewBulkReparentHandler(reparentService *services.ReparentService) *BulkReparentHandler {
	return &BulkReparentHandler{reparentService: reparentService}
}

// Handle executes the bulk reparent command
func (h *BulkReparentHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.BulkReparentCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	domainID, err := valueobjects.NewDomainIDFromString(c.DomainID)
	if err != nil {
		return nil, fmt.Errorf("invalid domain ID: %w", err)
	}

	items := make([]services.BulkReparentItem, 0, len(c.Items))
	for _, entry := range c.Items {
		pageID, err := valueobjects.NewPageIDFromString(entry.PageID)
		if err != nil {
			return nil, fmt.Errorf("invalid page ID %q: %w", entry.PageID, err)
		}
		parentID, err := optionalPageID(entry.NewParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent ID for page %q: %w", entry.PageID, err)
		}
		items = append(items, services.BulkReparentItem{
			PageID:      pageID,
			NewParentID: parentID,
		})
	}

	return h.reparentService.BulkReparent(ctx, domainID, items)
}

// UpdatePositionsHandler handles manual position commands
type UpdatePositionsHandler struct {
	layoutService *services.LayoutService
}

// NewUpdatePositionsHandler creates a new handler instance
func NewUpdatePositionsHandler(layoutService *services.LayoutService) *UpdatePositionsHandler {
	return &UpdatePositionsHandler{layoutService: layoutService}
}

// Handle executes the position update command
func (h *UpdatePositionsHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.UpdatePagePositionsCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	domainID, err := valueobjects.NewDomainIDFromString(c.DomainID)
	if err != nil {
		return nil, fmt.Errorf("invalid domain ID: %w", err)
	}

	updates := make([]services.PositionUpdate, 0, len(c.Positions))
	for _, entry := range c.Positions {
		pageID, err := valueobjects.NewPageIDFromString(entry.PageID)
		if err != nil {
			return nil, fmt.Errorf("invalid page ID %q: %w", entry.PageID, err)
		}
		updates = append(updates, services.PositionUpdate{
			PageID:  pageID,
			X:       entry.X,
			Y:       entry.Y,
			Release: entry.Release,
		})
	}

	if err := h.layoutService.UpdatePositions(ctx, domainID, updates); err != nil {
		return nil, err
	}
	return len(updates), nil
}

func optionalPageID(raw *string) (*valueobjects.PageID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := valueobjects.NewPageIDFromString(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
