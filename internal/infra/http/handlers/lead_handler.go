package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

// LeadHandler expõe o formulário multi-etapas. O token é a única credencial do visitante.
type LeadHandler struct {
	LeadUC *usecase.LeadUseCase
	Logger *zap.Logger
}

func NewLeadHandler(uc *usecase.LeadUseCase, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{LeadUC: uc, Logger: logger}
}

// Create (POST /api/leads/create)
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var data usecase.Fields
	if !decodeJSON(w, r, &data) {
		return
	}

	out, err := h.LeadUC.CreateDraft(r.Context(), data)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Get (GET /api/leads/{token})
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.LeadUC.GetDraft(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Update (PUT /api/leads/{token})
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateDraftInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.LeadUC.UpdateDraft(r.Context(), chi.URLParam(r, "token"), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CompleteStep (POST /api/leads/{token}/complete-step)
func (h *LeadHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	var input usecase.CompleteStepInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.LeadUC.CompleteStep(r.Context(), chi.URLParam(r, "token"), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Finalize (POST /api/leads/{token}/finalize)
func (h *LeadHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var data usecase.Fields
	if !decodeJSON(w, r, &data) {
		return
	}

	out, err := h.LeadUC.Finalize(r.Context(), chi.URLParam(r, "token"), data)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	middleware.RecordServiceRequest(entity.SourceForm)
	writeJSON(w, http.StatusOK, out)
}
