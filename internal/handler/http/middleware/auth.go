package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type claimsKey struct{}

// AuthRequired rejects requests without a valid access token and stores the
// tenant claims on the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			raw, err := token.AsMap(r.Context())
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			claims, err := jwt.ClaimsFromMap(raw)
			if err != nil {
				response.Unauthorized(w, "Invalid token: "+err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		}
		return http.HandlerFunc(hfn)
	}
}

// WithClaims attaches claims to ctx.
func WithClaims(ctx context.Context, claims user.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by AuthRequired.
func ClaimsFromContext(ctx context.Context) (user.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(user.Claims)
	return claims, ok
}
