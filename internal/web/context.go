package web

import (
	"net/http"

	"github.com/JonMunkholm/ProductTable/internal/core"
)

// sessionMiddleware resolves the browser session from its cookie, issuing a
// new session and cookie when the cookie is missing or names an evicted
// session. The id is stored in the request context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var current string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			current = c.Value
		}

		sid, created := s.service.EnsureSession(current)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := core.ContextWithSessionID(r.Context(), sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the session resolved by sessionMiddleware.
func sessionID(r *http.Request) string {
	return core.SessionIDFromContext(r.Context())
}
