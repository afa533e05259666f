package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

// Headers set by the upstream auth proxy.
const (
	HeaderUserEmail        = "X-User-Email"
	HeaderUserName         = "X-User-Name"
	HeaderUserSubscription = "X-User-Subscription"
	HeaderUserTheme        = "X-User-Theme"
)

// sessionMiddleware stores the caller's core.Session in the request context
// and tags the request logger with the user.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := core.Session{
			UserEmail:    sanitizeInput(r.Header.Get(HeaderUserEmail)),
			FullName:     sanitizeInput(r.Header.Get(HeaderUserName)),
			Subscription: sanitizeInput(r.Header.Get(HeaderUserSubscription)),
			Theme:        sanitizeInput(r.Header.Get(HeaderUserTheme)),
		}
		ctx := core.WithSession(r.Context(), sess)
		if sess.UserEmail != "" {
			ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUser, sess.UserEmail))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionOf returns the request session, or the zero (free) session.
func sessionOf(r *http.Request) core.Session {
	sess, _ := core.SessionFrom(r.Context())
	return sess
}
