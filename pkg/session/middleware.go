package session

import (
	"context"
	"net/http"
)

type contextKey struct{}

// FromContext returns the session placed by RequireAuth or RequireAdmin.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok
}

// RequireAuth redirects unauthenticated requests to redirectTo and injects
// the session into the request context for downstream handlers.
func RequireAuth(m *Manager, redirectTo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.Current(r.Context(), r)
			if err != nil || !sess.Authenticated() {
				http.Redirect(w, r, redirectTo, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, sess)))
		})
	}
}

// RequireAdmin responds 403 for sessions without the admin flag. It must be
// mounted inside RequireAuth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := FromContext(r.Context())
			if !ok || !sess.IsAdmin {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
