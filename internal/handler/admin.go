package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wanderplan/wanderplan-go/internal/middleware"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

// AdminHandler handles the user administration endpoints.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// HandleListUsers handles GET /api/v1/admin/users?limit=&offset=.
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), service.DefaultListLimit)
	offset := max(queryInt(q.Get("offset"), 0), 0)
	if limit <= 0 {
		limit = service.DefaultListLimit
	}
	limit = min(limit, service.MaxListLimit)

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.UserListResponse{Users: users, Limit: limit, Offset: offset})
}

// HandleActivate handles POST /api/v1/admin/users/{id}/activate.
func (h *AdminHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// HandleDeactivate handles POST /api/v1/admin/users/{id}/deactivate.
func (h *AdminHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AdminHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if self, _ := middleware.UserIDFromContext(r.Context()); !active && self == userID {
		writeJSON(w, http.StatusBadRequest, errorResponse("cannot deactivate your own account"))
		return
	}

	if err := h.service.SetActive(r.Context(), userID, active); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetRole handles PUT /api/v1/admin/users/{id}/role.
func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req model.SetRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SetRole(r.Context(), userID, req.Role); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid user id"))
		return 0, false
	}
	return id, true
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
