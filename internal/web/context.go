package web

import (
	"context"
	"net/http"
)

type contextKey string

const actingUserKey contextKey = "actingUser"

// Acting user id attributed to writes when the client does not
// identify itself.
var defaultActingUser = "system"

// actingUser resolves the caller identity from the X-Acting-User
// header and stores it on the request context.
func actingUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get("X-Acting-User")
		if user == "" {
			user = defaultActingUser
		}
		ctx := context.WithValue(r.Context(), actingUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActingUserFromContext returns the acting user id set by the
// actingUser middleware.
func ActingUserFromContext(ctx context.Context) string {
	if user, ok := ctx.Value(actingUserKey).(string); ok && user != "" {
		return user
	}
	return defaultActingUser
}
