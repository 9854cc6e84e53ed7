package middleware

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/souq/pkg/auth"
)

// TokenParser verifies a bearer token. *auth.Issuer satisfies it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Auth requires a valid `Authorization: Bearer <jwt>` header and attaches the
// caller's identity to the request context. Browsers cannot set headers on
// websocket handshakes, so upgrade requests may pass the token as ?token=.
func Auth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			id := auth.Identity{UserID: claims.UserID, Email: claims.Email, IsAdmin: claims.IsAdmin}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin allows only identities with the admin flag. Mount after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !id.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}
