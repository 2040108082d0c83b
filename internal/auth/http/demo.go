package http

import (
	"net/http"

	"github.com/eledevo/authledger/pkg/httpx"
)

// Demo resources. They carry no business logic; their job is to make the
// role and authority gates observable end to end.

// HandleHelloWorld greets managers and admins.
//
// GET /api/v1/hello/world
func HandleHelloWorld(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Hello " + id.Subject,
	})
}

// HandleAccessFree is reachable without a token.
//
// GET /api/access/free
func HandleAccessFree(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "free access",
	})
}

// HandleAccessAdmin requires the admin:read authority.
//
// GET /api/access/admin
func HandleAccessAdmin(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "admin access",
	})
}

// HandleAccessManager requires the management:read authority.
//
// GET /api/access/manager
func HandleAccessManager(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "manager access",
	})
}
