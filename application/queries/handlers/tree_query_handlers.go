package handlers

import (
	"context"
	"fmt"

	"seopilot-backend/application/queries"
	"seopilot-backend/application/queries/bus"
	"seopilot-backend/application/services"
	"seopilot-backend/domain/core/valueobjects"
)

// GetTreeLayoutHandler handles tree layout queries
type GetTreeLayoutHandler struct {
	layoutService *services.LayoutService
}

// NewGetTreeLayoutHandler creates a new tree layout query handler
func NewGetTreeLayoutHandler(layoutService *services.LayoutService) *GetTreeLayoutHandler {
	return &GetTreeLayoutHandler{layoutService: layoutService}
}

// Handle executes the tree layout query
func (h *GetTreeLayoutHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetTreeLayoutQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	domainID, err := valueobjects.NewDomainIDFromString(q.DomainID)
	if err != nil {
		return nil, err
	}

	return h.layoutService.GetTreeLayout(ctx, domainID)
}
