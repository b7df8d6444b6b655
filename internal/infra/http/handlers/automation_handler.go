package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

type AutomationHandler struct {
	AutomationUC *usecase.AutomationUseCase
	Logger       *zap.Logger
}

func NewAutomationHandler(uc *usecase.AutomationUseCase, logger *zap.Logger) *AutomationHandler {
	return &AutomationHandler{AutomationUC: uc, Logger: logger}
}

// List (GET /api/automations)
func (h *AutomationHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.AutomationUC.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Set (PUT /api/automations/{key})
func (h *AutomationHandler) Set(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Enabled *bool `json:"enabled"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   usecase.CodeValidation,
			Message: "validation failed",
			Fields:  []usecase.ValidationError{{Field: "enabled", Message: "is required"}},
		})
		return
	}

	userID := ""
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		userID = u.ID
	}

	setting, err := h.AutomationUC.Set(r.Context(), chi.URLParam(r, "key"), *input.Enabled, userID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}
