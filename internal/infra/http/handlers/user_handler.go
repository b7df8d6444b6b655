package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

// UserHandler cobre a gestão de usuários e o login do back-office.
type UserHandler struct {
	UserUC *usecase.UserUseCase
	Logger *zap.Logger
}

func NewUserHandler(uc *usecase.UserUseCase, logger *zap.Logger) *UserHandler {
	return &UserHandler{UserUC: uc, Logger: logger}
}

// Login (POST /api/auth/login)
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input usecase.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.UserUC.Login(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Me (GET /api/auth/me) devolve o usuário já carregado pelo middleware.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserUC.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}

	u, err := h.UserUC.Create(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}

	u, err := h.UserUC.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.UserFromContext(r.Context())
	currentID := ""
	if current != nil {
		currentID = current.ID
	}

	if err := h.UserUC.Delete(r.Context(), chi.URLParam(r, "id"), currentID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PermissionTemplates (GET /api/users/permission-templates)
func (h *UserHandler) PermissionTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.UserUC.PermissionTemplates())
}
