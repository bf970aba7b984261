package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"seopilot-backend/application/commands"
	"seopilot-backend/application/commands/bus"
	"seopilot-backend/application/queries"
	querybus "seopilot-backend/application/queries/bus"
	"seopilot-backend/pkg/common"
	pkgerrors "seopilot-backend/pkg/errors"
	"seopilot-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// TreeHandler handles site tree HTTP requests
type TreeHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *TreeHandler {
	return &TreeHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// GetTreeLayout handles GET /domains/{domainID}/tree
func (h *TreeHandler) GetTreeLayout(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if _, err := uuid.Parse(domainID); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid domain ID format")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetTreeLayoutQuery{DomainID: domainID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// UpdatePositionsRequest represents the request body for pinning positions
type UpdatePositionsRequest struct {
	Positions []PositionEntryRequest `json:"positions" validate:"required,min=1,max=500,dive"`
}

// PositionEntryRequest pins one page or releases its pin
type PositionEntryRequest struct {
	PageID  string  `json:"page_id" validate:"required,uuid"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Release bool    `json:"release,omitempty"`
}

// UpdatePositions handles PUT /domains/{domainID}/positions
func (h *TreeHandler) UpdatePositions(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if _, err := uuid.Parse(domainID); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid domain ID format")
		return
	}

	var req UpdatePositionsRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	positions := make([]commands.PositionEntry, 0, len(req.Positions))
	for _, entry := range req.Positions {
		positions = append(positions, commands.PositionEntry{
			PageID:  entry.PageID,
			X:       entry.X,
			Y:       entry.Y,
			Release: entry.Release,
		})
	}

	result, err := h.commandBus.Send(r.Context(), commands.UpdatePagePositionsCommand{
		DomainID:  domainID,
		Positions: positions,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ReparentRequest represents the request body for moving a page
type ReparentRequest struct {
	NewParentID *string `json:"new_parent_id,omitempty" validate:"omitempty,uuid"`
}

// ReparentPage handles POST /pages/{pageID}/reparent
func (h *TreeHandler) ReparentPage(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	if _, err := uuid.Parse(pageID); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid page ID format")
		return
	}

	var req ReparentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.ReparentPageCommand{
		PageID:      pageID,
		NewParentID: req.NewParentID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// BulkReparentRequest represents the request body for bulk moves
type BulkReparentRequest struct {
	DomainID string                   `json:"domain_id" validate:"required,uuid"`
	Items    []BulkReparentEntryModel `json:"items" validate:"required,min=1,max=100,dive"`
}

// BulkReparentEntryModel is one move of a bulk request
type BulkReparentEntryModel struct {
	PageID      string  `json:"page_id" validate:"required,uuid"`
	NewParentID *string `json:"new_parent_id,omitempty" validate:"omitempty,uuid"`
}

// BulkReparent handles POST /pages/bulk-reparent
func (h *TreeHandler) BulkReparent(w http.ResponseWriter, r *http.Request) {
	var req BulkReparentRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	items := make([]commands.BulkReparentEntry, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, commands.BulkReparentEntry{
			PageID:      item.PageID,
			NewParentID: item.NewParentID,
		})
	}

	result, err := h.commandBus.Send(r.Context(), commands.BulkReparentCommand{
		DomainID: req.DomainID,
		Items:    items,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	// Partial failures still return 200; per-item outcomes carry the detail
	common.RespondJSON(w, http.StatusOK, result)
}
