package web

import (
	"context"
	"net/http"
	"strings"
)

// Role decides which dashboard a session may use.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Session is the signed-in user of one request. The identity proxy in front
// of the API authenticates users and forwards them in trusted headers.
type Session struct {
	Principal string
	Role      Role
}

// IsAdmin reports whether the session may use the admin dashboard.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

type sessionKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session stored by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}

// withSession reads the principal and role headers into the request
// context. Requests without a principal are rejected; an unknown role is
// treated as a plain user.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := strings.TrimSpace(r.Header.Get(s.cfg.Security.PrincipalHeader))
		if principal == "" {
			respondError(w, r, errUnauthorized)
			return
		}

		sess := Session{Principal: principal, Role: RoleUser}
		if Role(strings.ToLower(strings.TrimSpace(r.Header.Get(s.cfg.Security.RoleHeader)))) == RoleAdmin {
			sess.Role = RoleAdmin
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// requireAdmin lets only admin sessions through.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if !ok || !sess.IsAdmin() {
			respondError(w, r, errAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
