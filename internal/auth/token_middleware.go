package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/snipvault/snipvault/internal/store"
)

// APIAuthMiddleware authenticates API requests. A Bearer token in the
// Authorization header takes precedence; when the header is absent and a
// session manager is configured, a browser session is accepted instead, so the
// JSON API serves both scripted clients and the web frontend.
type APIAuthMiddleware struct {
	tokens   TokenStore
	users    *store.UserStore
	sessions *scs.SessionManager
}

// NewAPIAuthMiddleware creates a new APIAuthMiddleware. sessions may be nil to
// disable the session fallback (token-only authentication).
func NewAPIAuthMiddleware(ts TokenStore, us *store.UserStore, sm *scs.SessionManager) *APIAuthMiddleware {
	return &APIAuthMiddleware{tokens: ts, users: us, sessions: sm}
}

// Authenticate extracts and validates the caller's credentials. On success it
// injects the owning *store.User into the request context; token auth also
// fires an async last_used_at update. Missing, invalid, expired, or revoked
// credentials get a 401 JSON response.
func (m *APIAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.authenticateSession(next, w, r)
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeUnauthorized(w)
			return
		}
		plaintext := strings.TrimPrefix(authHeader, "Bearer ")
		if plaintext == "" {
			writeUnauthorized(w)
			return
		}

		// Hash the plaintext token and look it up.
		hash := HashToken(plaintext)
		rec, err := m.tokens.GetByHash(r.Context(), hash)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		// Reject revoked tokens.
		if rec.RevokedAt.Valid {
			writeUnauthorized(w)
			return
		}

		// Reject expired tokens.
		if rec.ExpiresAt.Valid && rec.ExpiresAt.Time.Before(time.Now()) {
			writeUnauthorized(w)
			return
		}

		// Load the user who owns the token.
		user, err := m.users.GetByID(r.Context(), rec.UserID)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		// Update last_used_at asynchronously to avoid write overhead on every read.
		go m.tokens.UpdateLastUsed(context.Background(), rec.ID)

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticateSession is the cookie fallback for browser callers. Requires the
// scs LoadAndSave middleware upstream.
func (m *APIAuthMiddleware) authenticateSession(next http.Handler, w http.ResponseWriter, r *http.Request) {
	if m.sessions == nil {
		writeUnauthorized(w)
		return
	}

	userID := m.sessions.GetString(r.Context(), SessionUserIDKey)
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	user, err := m.users.GetByID(r.Context(), userID)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	ctx := context.WithValue(r.Context(), UserContextKey, user)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// writeUnauthorized writes a 401 JSON response with {"error": "unauthorized"}.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
