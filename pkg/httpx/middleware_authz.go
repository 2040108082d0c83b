package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyRole admits callers whose role matches one of those listed.
// Anonymous requests get 401; authenticated requests with the wrong role
// get 403.
func RequireAnyRole(roles ...string) Middleware {
	want := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		want[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeBearerError(w, "authentication required")
				return
			}
			if _, ok := want[id.Role]; !ok {
				writeInsufficientError(w, roles...)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyAuthority admits callers holding at least one of the listed
// authorities.
func RequireAnyAuthority(authorities ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeBearerError(w, "authentication required")
				return
			}
			for _, a := range authorities {
				if id.HasAuthority(a) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeInsufficientError(w, authorities...)
		})
	}
}

// RFC 6750-style error response for missing or unusable bearer tokens.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}

// RFC 6750-style error response when the caller lacks the required grant.
func writeInsufficientError(w http.ResponseWriter, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("insufficient_scope"))
}
