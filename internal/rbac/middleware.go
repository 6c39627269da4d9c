package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// DefaultIdentityHeader carries the acting person's id, set by the token layer
// in front of the service.
const DefaultIdentityHeader = "X-User-ID"

// Middleware wires identity helpers for HTTP handlers.
type Middleware struct {
	Header string
	Logger *slog.Logger
}

func (m Middleware) header() string {
	if m.Header == "" {
		return DefaultIdentityHeader
	}
	return m.Header
}

// Identify stores the identity header in the request context. Requests
// without the header pass through anonymous; a malformed header is rejected.
func (m Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(m.header()))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := uuid.Parse(raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("rbac parse user id", slog.String("value", raw))
			}
			httpx.RespondError(w, ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireUser rejects anonymous requests.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			httpx.RespondError(w, ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
