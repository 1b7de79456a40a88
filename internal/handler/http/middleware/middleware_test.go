package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(jwtService jwt.Service, permission user.Permission) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
	r.Use(AuthRequired(jwtService.JWTAuth()))
	r.With(RequirePermission(permission)).Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestAuthAndPermission(t *testing.T) {
	jwtService := jwt.NewJWTService("test-secret", "15m")
	router := newProtectedRouter(jwtService, user.PermissionPayrollApprove)

	token := func(claims user.Claims) string {
		tok, _, err := jwtService.GenerateAccessToken(claims)
		require.NoError(t, err)
		return tok
	}
	sseToken, _, err := jwtService.GenerateSSEToken(user.Claims{UserID: "u", CompanyID: "c"}, "run-1")
	require.NoError(t, err)

	cases := []struct {
		name   string
		auth   string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"owner", token(user.Claims{UserID: "u", CompanyID: "c", Role: user.RoleOwner}), http.StatusNoContent},
		{"manager lacks approve", token(user.Claims{UserID: "u", CompanyID: "c", Role: user.RoleManager}), http.StatusForbidden},
		{"no company", token(user.Claims{UserID: "u", Role: user.RoleOwner}), http.StatusForbidden},
		{"sse token", sseToken, http.StatusUnauthorized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if c.auth != "" {
				req.Header.Set("Authorization", "Bearer "+c.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, c.status, rec.Code)
		})
	}
}
