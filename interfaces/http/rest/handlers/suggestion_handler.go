package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"seopilot-backend/application/commands"
	"seopilot-backend/application/commands/bus"
	"seopilot-backend/application/queries"
	querybus "seopilot-backend/application/queries/bus"
	"seopilot-backend/pkg/auth"
	"seopilot-backend/pkg/common"
	pkgerrors "seopilot-backend/pkg/errors"
	"seopilot-backend/pkg/utils"
)

// SuggestionHandler handles suggestion tracking HTTP requests
type SuggestionHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *SuggestionHandler {
	return &SuggestionHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

func (h *SuggestionHandler) suggestionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "suggestionID")
	if _, err := uuid.Parse(id); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid suggestion ID format")
		return "", false
	}
	return id, true
}

// GetSuggestion handles GET /suggestions/{suggestionID}
func (h *SuggestionHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.suggestionID(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetSuggestionQuery{SuggestionID: id})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ListSuggestions handles GET /domains/{domainID}/suggestions
func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if _, err := uuid.Parse(domainID); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid domain ID format")
		return
	}

	page := common.ParsePageRequest(r)

	result, err := h.queryBus.Ask(r.Context(), queries.ListSuggestionsQuery{
		DomainID: domainID,
		Status:   r.URL.Query().Get("status"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	list, ok := result.(*queries.ListSuggestionsResult)
	if !ok {
		common.RespondJSON(w, http.StatusOK, result)
		return
	}
	common.RespondWithMeta(w, http.StatusOK, list.Suggestions, &common.MetaInfo{
		Pagination: common.NewPaginationInfo(page, list.Total),
	})
}

// GetTimeline handles GET /suggestions/{suggestionID}/timeline
func (h *SuggestionHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := h.suggestionID(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetSuggestionTimelineQuery{SuggestionID: id})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// StartTracking handles POST /suggestions/{suggestionID}/tracking/start
func (h *SuggestionHandler) StartTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.suggestionID(w, r)
	if !ok {
		return
	}

	if user, err := auth.GetUserFromContext(r.Context()); err == nil {
		h.logger.Info("Tracking start requested",
			zap.String("suggestionID", id),
			zap.String("userID", user.UserID),
		)
	}

	result, err := h.commandBus.Send(r.Context(), commands.StartTrackingCommand{SuggestionID: id})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// CaptureSnapshot handles POST /suggestions/{suggestionID}/tracking/snapshot
func (h *SuggestionHandler) CaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.suggestionID(w, r)
	if !ok {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CaptureSnapshotCommand{SuggestionID: id})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// AnalyzeRequest optionally labels an analysis run
type AnalyzeRequest struct {
	AnalysisType string `json:"analysis_type,omitempty" validate:"omitempty,oneof=manual scheduled final"`
}

// AnalyzeImpact handles POST /suggestions/{suggestionID}/tracking/analyze
func (h *SuggestionHandler) AnalyzeImpact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.suggestionID(w, r)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if !h.parseOptionalBody(w, r, &req) {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.AnalyzeImpactCommand{
		SuggestionID: id,
		AnalysisType: req.AnalysisType,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// EndTrackingRequest optionally asks for a final analysis before completion
type EndTrackingRequest struct {
	RunFinalAnalysis bool `json:"run_final_analysis,omitempty"`
}

// EndTracking handles POST /suggestions/{suggestionID}/tracking/end
func (h *SuggestionHandler) EndTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.suggestionID(w, r)
	if !ok {
		return
	}

	if user, err := auth.GetUserFromContext(r.Context()); err == nil {
		h.logger.Info("Tracking end requested",
			zap.String("suggestionID", id),
			zap.String("userID", user.UserID),
		)
	}

	var req EndTrackingRequest
	if !h.parseOptionalBody(w, r, &req) {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.EndTrackingCommand{
		SuggestionID:     id,
		RunFinalAnalysis: req.RunFinalAnalysis,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// AutoCompleteRequest optionally overrides the observation window
type AutoCompleteRequest struct {
	MaxDays int `json:"max_days,omitempty" validate:"omitempty,min=1"`
}

// AutoCompleteStale handles POST /tracking/auto-complete
func (h *SuggestionHandler) AutoCompleteStale(w http.ResponseWriter, r *http.Request) {
	var req AutoCompleteRequest
	if !h.parseOptionalBody(w, r, &req) {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.AutoCompleteStaleCommand{MaxDays: req.MaxDays})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"completed": result,
	})
}

// parseOptionalBody decodes a JSON body when one is present. An empty
// body leaves v at its zero value.
func (h *SuggestionHandler) parseOptionalBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := common.ParseJSONBody(r, v, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return false
	}
	return true
}
