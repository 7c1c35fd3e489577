package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/qmsoft/dmt-tracker/auth"
	"github.com/qmsoft/dmt-tracker/userctx"
)

// RequireAuth ensures the request carries a valid, unexpired session token
// in the Authorization header. The session's identity is placed on the
// request context for handlers and audit writes downstream.
func RequireAuth(sessions *auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			session, ok := sessions.Get(token)
			if !ok {
				unauthorized(w)
				return
			}

			ctx := userctx.SetUserID(r.Context(), session.UserID)
			ctx = userctx.SetUsername(ctx, session.Username)
			ctx = userctx.SetRole(ctx, session.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts a route group to callers holding the given role.
// Must sit inside RequireAuth so the role is already on the context.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userctx.GetRole(r.Context()) != role {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"error": "admin access required"})
}
