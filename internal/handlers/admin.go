package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/models"
	"github.com/ironvault/ironvault/internal/services"
	pkghttp "github.com/ironvault/ironvault/pkg/http"
)

// AdminServiceInterface defines the interface for privileged operations
type AdminServiceInterface interface {
	ListAuditLogs(ctx context.Context, actor auth.Actor, limit int) ([]*models.AuditLog, error)
	ListAllUsers(ctx context.Context, actor auth.Actor, limit, offset int) ([]*models.User, error)
	UpdateUserRoleAndStatus(ctx context.Context, actor auth.Actor, targetID uuid.UUID, newRole *models.Role, newStatus *string, ip string) (*models.User, error)
	DeleteUser(ctx context.Context, actor auth.Actor, targetID uuid.UUID, ip string) error
}

// AdminHandler handles Admin and Manager HTTP requests
type AdminHandler struct {
	service  AdminServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface, ipConfig *pkghttp.IPConfig) *AdminHandler {
	return &AdminHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// UpdateUserRequest represents the request body for a role/status change.
// Both fields are optional; omitting both is an accepted no-op.
type UpdateUserRequest struct {
	Role   *string `json:"role,omitempty" validate:"omitempty,oneof=Admin Customer Manager"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=Active Suspended"`
}

// ListAuditLogs returns the most recent audit trail entries
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			pkghttp.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.service.ListAuditLogs(r.Context(), actor, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, auditLogToResponse(entry))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ListAllUsers returns the full user roster
func (h *AdminHandler) ListAllUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.service.ListAllUsers(r.Context(), actor, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*services.UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, userToResponse(user))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// UpdateUser applies an Admin role and/or status change to a user
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var newRole *models.Role
	if req.Role != nil {
		role := models.Role(*req.Role)
		newRole = &role
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	user, err := h.service.UpdateUserRoleAndStatus(r.Context(), actor, targetID, newRole, req.Status, ip)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, userToResponse(user))
}

// DeleteUser removes a user and all rows referencing them
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	if err := h.service.DeleteUser(r.Context(), actor, targetID, ip); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
