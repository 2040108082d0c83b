package http

import (
	"net/http"

	"github.com/eledevo/authledger/internal/auth/service"
	"github.com/eledevo/authledger/pkg/httpx"
	"github.com/eledevo/authledger/pkg/slogx"
)

// AuthnMiddleware resolves the bearer token to a request identity. It
// never rejects: requests with no token, a bad token, or a revoked token
// simply stay anonymous and fall through to the authorization gates.
func AuthnMiddleware(authn *service.Authenticator) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Re-entrancy guard: if something upstream already resolved
			// an identity, keep it.
			if _, ok := httpx.IdentityFromContext(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := httpx.BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authn.Authenticate(ctx, token)
			if err != nil {
				slogx.FromContext(ctx).Debug("bearer token rejected, continuing anonymous", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = httpx.ContextWithIdentity(ctx, httpx.Identity{
				UserID:      principal.UserID,
				Subject:     principal.Email,
				Role:        string(principal.Role),
				Authorities: principal.Authorities,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
