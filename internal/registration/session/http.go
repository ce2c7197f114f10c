package session

import (
	"net/http"

	"github.com/vacme/vacme-backend/pkg/httputil"
)

// KeyFromRequest derives the booking session key for a request: the
// authenticated user when present, the portal's session header for
// registrants browsing before login. The empty key maps to a shared
// throwaway session, which only ever happens in misconfigured clients.
func KeyFromRequest(r *http.Request) string {
	if id := httputil.GetUserID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Session-ID")
}
