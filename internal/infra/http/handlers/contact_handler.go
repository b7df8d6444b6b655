package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

type ContactHandler struct {
	ContactUC *usecase.ContactUseCase
	Logger    *zap.Logger
}

func NewContactHandler(uc *usecase.ContactUseCase, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{ContactUC: uc, Logger: logger}
}

// Submit (POST /api/contact)
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input usecase.ContactInput
	if !decodeJSON(w, r, &input) {
		return
	}

	msg, err := h.ContactUC.Submit(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "id": msg.ID})
}

// List (GET /api/contact-messages)
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.ContactUC.List(r.Context(), pageFromQuery(r))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
