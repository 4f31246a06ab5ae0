package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/models"
	pkghttp "github.com/ironvault/ironvault/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routeWithID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminHandler_ListAuditLogs_PassesLimit(t *testing.T) {
	var gotLimit int
	service := &MockAdminService{
		ListAuditLogsFunc: func(ctx context.Context, actor auth.Actor, limit int) ([]*models.AuditLog, error) {
			gotLimit = limit
			return []*models.AuditLog{}, nil
		},
	}
	handler := NewAdminHandler(service, &pkghttp.IPConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit-logs?limit=25", nil)
	rec := httptest.NewRecorder()

	handler.ListAuditLogs(rec, withActor(req, testActor(models.RoleAdmin)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, gotLimit)
}

func TestAdminHandler_ListAuditLogs_BadLimit(t *testing.T) {
	handler := NewAdminHandler(&MockAdminService{}, &pkghttp.IPConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit-logs?limit=zero", nil)
	rec := httptest.NewRecorder()

	handler.ListAuditLogs(rec, withActor(req, testActor(models.RoleAdmin)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandler_ListAuditLogs_Forbidden(t *testing.T) {
	service := &MockAdminService{
		ListAuditLogsFunc: func(ctx context.Context, actor auth.Actor, limit int) ([]*models.AuditLog, error) {
			return nil, models.ErrForbidden
		},
	}
	handler := NewAdminHandler(service, &pkghttp.IPConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit-logs", nil)
	rec := httptest.NewRecorder()

	handler.ListAuditLogs(rec, withActor(req, testActor(models.RoleCustomer)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminHandler_UpdateUser_Success(t *testing.T) {
	target := uuid.New()
	service := &MockAdminService{
		UpdateUserRoleAndStatusFunc: func(ctx context.Context, actor auth.Actor, targetID uuid.UUID, newRole *models.Role, newStatus *string, ip string) (*models.User, error) {
			assert.Equal(t, target, targetID)
			require.NotNil(t, newRole)
			assert.Equal(t, models.RoleManager, *newRole)
			assert.Nil(t, newStatus)
			return &models.User{ID: targetID, Role: *newRole, Status: models.StatusActive}, nil
		},
	}
	handler := NewAdminHandler(service, &pkghttp.IPConfig{})

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/users/"+target.String(),
		strings.NewReader(`{"role":"Manager"}`))
	req = routeWithID(req, target.String())
	rec := httptest.NewRecorder()

	handler.UpdateUser(rec, withActor(req, testActor(models.RoleAdmin)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Manager")
}

func TestAdminHandler_UpdateUser_UnknownRole(t *testing.T) {
	handler := NewAdminHandler(&MockAdminService{}, &pkghttp.IPConfig{})

	target := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/users/"+target.String(),
		strings.NewReader(`{"role":"Superuser"}`))
	req = routeWithID(req, target.String())
	rec := httptest.NewRecorder()

	handler.UpdateUser(rec, withActor(req, testActor(models.RoleAdmin)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandler_UpdateUser_BadID(t *testing.T) {
	handler := NewAdminHandler(&MockAdminService{}, &pkghttp.IPConfig{})

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/users/not-a-uuid",
		strings.NewReader(`{"role":"Manager"}`))
	req = routeWithID(req, "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.UpdateUser(rec, withActor(req, testActor(models.RoleAdmin)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandler_DeleteUser_Success(t *testing.T) {
	target := uuid.New()
	service := &MockAdminService{
		DeleteUserFunc: func(ctx context.Context, actor auth.Actor, targetID uuid.UUID, ip string) error {
			assert.Equal(t, target, targetID)
			return nil
		},
	}
	handler := NewAdminHandler(service, &pkghttp.IPConfig{})

	req := httptest.NewRequest(http.MethodDelete, "/api/manager/users/"+target.String(), nil)
	req = routeWithID(req, target.String())
	rec := httptest.NewRecorder()

	handler.DeleteUser(rec, withActor(req, testActor(models.RoleManager)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminHandler_DeleteUser_NotFound(t *testing.T) {
	handler := NewAdminHandler(&MockAdminService{}, &pkghttp.IPConfig{})

	target := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/manager/users/"+target.String(), nil)
	req = routeWithID(req, target.String())
	rec := httptest.NewRecorder()

	handler.DeleteUser(rec, withActor(req, testActor(models.RoleManager)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
