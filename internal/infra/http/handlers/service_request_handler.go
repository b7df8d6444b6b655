package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ServiceRequestHandler struct {
	RequestUC *usecase.ServiceRequestUseCase
	Logger    *zap.Logger
}

func NewServiceRequestHandler(uc *usecase.ServiceRequestUseCase, logger *zap.Logger) *ServiceRequestHandler {
	return &ServiceRequestHandler{RequestUC: uc, Logger: logger}
}

// Submit (POST /api/service-requests)
func (h *ServiceRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input usecase.SubmitServiceRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.RequestUC.Submit(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	middleware.RecordServiceRequest(entity.SourceDirect)
	writeJSON(w, http.StatusCreated, out)
}

// Track (GET /api/service-requests/track/{reference})
func (h *ServiceRequestHandler) Track(w http.ResponseWriter, r *http.Request) {
	out, err := h.RequestUC.Track(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// List (GET /api/service-requests)
func (h *ServiceRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, errs := filterFromQuery(r)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: usecase.CodeValidation, Message: "invalid filter", Fields: errs})
		return
	}

	out, err := h.RequestUC.List(r.Context(), filter, pageFromQuery(r))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ServiceRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	sr, err := h.RequestUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

func (h *ServiceRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateServiceRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	sr, err := h.RequestUC.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

func (h *ServiceRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.RequestUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export (GET /api/service-requests/export) devolve a planilha filtrada.
func (h *ServiceRequestHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, errs := filterFromQuery(r)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: usecase.CodeValidation, Message: "invalid filter", Fields: errs})
		return
	}

	// Monta em memória para ainda poder responder com JSON se falhar.
	var buf bytes.Buffer
	if err := h.RequestUC.Export(r.Context(), filter, &buf); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	filename := fmt.Sprintf("demandes-%s.xlsx", time.Now().Format("20060102-1504"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Stats (GET /api/dashboard/stats)
func (h *ServiceRequestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.RequestUC.Stats(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
