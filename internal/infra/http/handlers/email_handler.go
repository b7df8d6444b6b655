package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

type EmailHandler struct {
	EmailUC *usecase.EmailUseCase
	Logger  *zap.Logger
}

func NewEmailHandler(uc *usecase.EmailUseCase, logger *zap.Logger) *EmailHandler {
	return &EmailHandler{EmailUC: uc, Logger: logger}
}

// ListMessages (GET /api/user-emails?folder=)
func (h *EmailHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "Authentication required")
		return
	}

	out, err := h.EmailUC.ListMessages(r.Context(), u, r.URL.Query().Get("folder"), pageFromQuery(r))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EmailHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "Authentication required")
		return
	}

	msg, err := h.EmailUC.GetMessage(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *EmailHandler) MoveMessage(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "Authentication required")
		return
	}
	var input struct {
		Folder string `json:"folder"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.EmailUC.MoveMessage(r.Context(), u, chi.URLParam(r, "id"), input.Folder); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EmailHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "Authentication required")
		return
	}

	if err := h.EmailUC.DeleteMessage(r.Context(), u, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Send (POST /api/send-email)
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "Authentication required")
		return
	}
	var input usecase.SendEmailInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.EmailUC.Send(r.Context(), u, input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

// Logs (GET /api/email-logs)
func (h *EmailHandler) Logs(w http.ResponseWriter, r *http.Request) {
	out, err := h.EmailUC.EmailLogs(r.Context(), pageFromQuery(r))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EmailHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	items, err := h.EmailUC.ListTemplates(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *EmailHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.EmailUC.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *EmailHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var input usecase.TemplateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	tpl, err := h.EmailUC.CreateTemplate(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (h *EmailHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var input usecase.TemplateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	tpl, err := h.EmailUC.UpdateTemplate(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *EmailHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.EmailUC.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PreviewTemplate (GET /api/email-templates/{id}/preview?service_request_id=)
func (h *EmailHandler) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	out, err := h.EmailUC.PreviewTemplate(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("service_request_id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
