package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
)

// ErrorWriter renders a failed request. The handler package supplies its
// JSON envelope writer.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware wires Service into chi routes.
type Middleware struct {
	svc        *Service
	cookieName string
	writeError ErrorWriter
}

func NewMiddleware(svc *Service, cookieName string, writeError ErrorWriter) *Middleware {
	return &Middleware{svc: svc, cookieName: cookieName, writeError: writeError}
}

// Token extracts the session token from the cookie or an
// "Authorization: Bearer" header.
func (m *Middleware) Token(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Authenticate rejects requests without a valid session with 401 and
// stores the user in the request context otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.svc.Resolve(r.Context(), m.Token(r))
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		logger := zerolog.Ctx(r.Context()).With().Str("user_id", u.ID).Logger()
		ctx := logger.WithContext(WithUser(r.Context(), u))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCapability rejects authenticated users whose role lacks every one
// of caps with 403. It must run after Authenticate.
func (m *Middleware) RequireCapability(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				m.writeError(w, r, apperr.Unauthorized(ErrNoSession, "authentication required"))
				return
			}
			if !HasAny(u.Role, caps...) {
				m.writeError(w, r, apperr.Forbidden(ErrMissingCapability, "role %s lacks %v", u.Role, caps))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
