package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

const (
	CodeInvalidJSON = "INVALID_JSON"
	CodeInternal    = "INTERNAL_ERROR"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []usecase.ValidationError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, CodeInvalidJSON, "JSON inválido: "+err.Error())
		return false
	}
	return true
}

var domainStatus = map[string]int{
	usecase.CodeValidation:         http.StatusBadRequest,
	usecase.CodeStepIncomplete:     http.StatusBadRequest,
	usecase.CodeLeadNotFound:       http.StatusNotFound,
	usecase.CodeNotFound:           http.StatusNotFound,
	usecase.CodeLeadFinalized:      http.StatusConflict,
	usecase.CodeStepOrder:          http.StatusConflict,
	usecase.CodeEmailExists:        http.StatusConflict,
	usecase.CodeTemplateExists:     http.StatusConflict,
	usecase.CodeInvalidCredentials: http.StatusUnauthorized,
	usecase.CodeForbidden:          http.StatusForbidden,
}

var technicalStatus = map[string]int{
	usecase.CodeMailBridge: http.StatusBadGateway,
}

// writeError traduz DomainError/TechnicalError para o corpo {error, message, fields}.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		status, ok := domainStatus[de.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, ErrorResponse{Error: de.Code, Message: de.Message, Fields: de.Fields})
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		status, ok := technicalStatus[te.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		logger.Error("❌ request failed", zap.String("code", te.Code), zap.Error(err))
		writeJSON(w, status, ErrorResponse{Error: te.Code, Message: te.Message})
		return
	}

	logger.Error("❌ unexpected error", zap.Error(err))
	writeErrorResponse(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

// pageFromQuery lê page/size/sort/direction; NormalizePage aplica os limites.
func pageFromQuery(r *http.Request) entity.Page {
	q := r.URL.Query()
	p := entity.Page{Sort: q.Get("sort")}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.Size, _ = strconv.Atoi(q.Get("size"))
	switch strings.ToLower(q.Get("direction")) {
	case "1", "asc":
		p.Direction = 1
	default:
		p.Direction = -1
	}
	return usecase.NormalizePage(p)
}

func filterFromQuery(r *http.Request) (entity.ServiceRequestFilter, []usecase.ValidationError) {
	q := r.URL.Query()
	f := entity.ServiceRequestFilter{
		Status:     q.Get("status"),
		Search:     strings.TrimSpace(q.Get("search")),
		AssignedTo: q.Get("assigned_to"),
	}
	var errs []usecase.ValidationError
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: name, Message: "expected YYYY-MM-DD or RFC3339"})
			continue
		}
		if name == "to" && len(raw) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		*dst = &t
	}
	if f.Status != "" && !entity.IsValidStatus(f.Status) {
		errs = append(errs, usecase.ValidationError{Field: "status", Message: "unknown status"})
	}
	return f, errs
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
