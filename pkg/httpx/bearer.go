package httpx

import (
	"net/http"
	"strings"
)

// bearerPrefix is matched case-sensitively, trailing space included.
const bearerPrefix = "Bearer "

// BearerToken extracts the raw token from the Authorization header.
// Returns false when the header is absent or not a bearer credential;
// an empty token after the prefix also returns false.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, bearerPrefix) {
		return "", false
	}
	token := authz[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}
