package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cliffauth/internal/auth"
)

// respondAuthError maps an auth failure to its response. Client mistakes
// are 400s with a stable message. Anything unexpected is logged and
// reported as a 500.
func respondAuthError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		auth.AbortUnauthenticated(c)
	case errors.Is(err, auth.ErrForbidden):
		respondError(c, http.StatusForbidden, auth.ErrForbidden.Error())
	case errors.Is(err, auth.ErrValidation):
		respondBadRequest(c, err.Error())
	case errors.Is(err, auth.ErrDuplicateEmail):
		respondBadRequest(c, auth.ErrDuplicateEmail.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondBadRequest(c, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrInvalidOrExpiredToken):
		respondBadRequest(c, auth.ErrInvalidOrExpiredToken.Error())
	default:
		respondInternalError(c, err, context)
	}
}
