package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequirePermission lets the request through only when the token's role holds every listed permission.
func RequirePermission(permissions ...user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, user.ErrInsufficientPermissions)
				return
			}

			role := user.Role("")
			if roleStr, ok := claims["role"].(string); ok {
				role = user.Role(roleStr)
			}

			for _, p := range permissions {
				if !user.HasPermission(role, p) {
					response.HandleError(w, fmt.Errorf("%w: required '%s', but user role is '%s'", user.ErrInsufficientPermissions, p, role))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
