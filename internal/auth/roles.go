package auth

import "github.com/mrlokans/cliffauth/internal/entities"

// RequireRole checks that user holds one of the allowed roles. A role that
// is not a known enum member never matches.
func RequireRole(user *entities.User, allowed ...entities.UserRole) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if !user.Role.Valid() {
		return ErrForbidden
	}
	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
