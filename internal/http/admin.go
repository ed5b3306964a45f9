package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cliffauth/internal/auth"
	"github.com/mrlokans/cliffauth/internal/entities"
)

// AuditReader lists recorded audit events.
type AuditReader interface {
	GetEvents(userID string, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// AdminController serves the admin-only endpoints.
type AdminController struct {
	service *auth.Service
	audit   AuditReader
}

func NewAdminController(service *auth.Service, audit AuditReader) *AdminController {
	return &AdminController{service: service, audit: audit}
}

// ListUsers returns registered users
// GET /api/auth/admin/users
func (ac *AdminController) ListUsers(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 100)

	users, total, err := ac.service.ListUsers(c.Request.Context(), auth.GetUser(c), limit, offset, auth.RequestMetaFrom(c))
	if err != nil {
		respondAuthError(c, err, "list users")
		return
	}

	public := make([]entities.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}

	respondSuccess(c, "Users fetched successfully", gin.H{
		"users":  public,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// AuditEvents returns authentication events, newest first. An optional
// user_id query parameter narrows them to one user.
// GET /api/auth/admin/audit
func (ac *AdminController) AuditEvents(c *gin.Context) {
	if ac.audit == nil {
		respondError(c, http.StatusServiceUnavailable, "audit log not available")
		return
	}

	limit, offset := parsePagination(c, 25, 100)
	events, total, err := ac.audit.GetEvents(c.Query("user_id"), limit, offset)
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}

	respondSuccess(c, "Audit events fetched successfully", gin.H{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
