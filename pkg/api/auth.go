// API authentication — static bearer token.
//
// When server.api_token is non-empty, requests must carry it as
// "Authorization: Bearer <token>", "X-API-Key: <token>" or, for websocket
// upgrades where custom headers are awkward, "?token=<token>".
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/zifox666/MoviePilot/pkg/logger"
)

// authMiddleware wraps a handler with token checking. An empty token
// disables auth; that is logged once so it never goes unnoticed.
func authMiddleware(apiToken string, next http.Handler) http.Handler {
	if apiToken == "" {
		logger.WarnC("auth", "API token auth DISABLED — set server.api_token")
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !tokenValid(extractToken(r), apiToken) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="moviepilot"`)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "unauthorized",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isPublicPath(path string) bool {
	return path == "/api/health"
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if h := r.Header.Get("X-API-Key"); h != "" {
		return h
	}
	return r.URL.Query().Get("token")
}

func tokenValid(token, want string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1
}
