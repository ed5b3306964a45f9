package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cliffauth/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser  = "auth_user"
	ContextKeyToken = "auth_token"
)

// Response bodies shared by every rejection of the same kind, so that the
// cause of a failure cannot be told apart from the outside.
var (
	unauthenticatedBody = gin.H{"message": ErrUnauthenticated.Error()}
	forbiddenBody       = gin.H{"message": ErrForbidden.Error()}
	internalErrorBody   = gin.H{"message": "internal server error"}
)

// Middleware guards routes with bearer token authentication.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token and stores the resolved user in the context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			AbortUnauthenticated(c)
			return
		}

		user, err := m.service.Authorize(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				log.Printf("[AUTH] Authorization failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, internalErrorBody)
				return
			}
			AbortUnauthenticated(c)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}

// RequireRole returns a middleware that requires one of the given roles.
// It must run after RequireAuth.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if err := RequireRole(user, roles...); err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				AbortUnauthenticated(c)
				return
			}
			meta := RequestMetaFrom(c)
			m.service.audit.LogAuth(user.ID, entities.AuditActionRoleDenied, meta.IPAddress, meta.UserAgent, false)
			c.AbortWithStatusJSON(http.StatusForbidden, forbiddenBody)
			return
		}
		c.Next()
	}
}

// AbortUnauthenticated stops the request with the uniform 401 response.
func AbortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, unauthenticatedBody)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Helper functions to extract auth data from Gin context

// GetUser retrieves the authenticated user from the context.
func GetUser(c *gin.Context) *entities.User {
	if u, exists := c.Get(ContextKeyUser); exists {
		if user, ok := u.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetToken retrieves the bearer token that authenticated the request.
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}

// RequestMetaFrom collects client details for auditing.
func RequestMetaFrom(c *gin.Context) RequestMeta {
	return RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
