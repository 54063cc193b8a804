package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
)

// requireClaims writes a 401 and returns false when the request carries no
// tenant claims.
func requireClaims(w http.ResponseWriter, r *http.Request) (user.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return user.Claims{}, false
	}
	return claims, true
}

// queryInt returns the positive integer in key, or fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func queryString(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}
