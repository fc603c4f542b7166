package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/llm"
	"github.com/snipvault/snipvault/internal/store"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Auth       *auth.APIAuthMiddleware
	Snippets   *store.SnippetStore
	Tags       *store.TagStore
	Users      *store.UserStore
	TokenStore auth.TokenStore
	Annotator  llm.Annotator
}

// NewAPIRouter creates a chi sub-router for /api/v1. All routes require
// authentication (Bearer token or an active browser session) and return
// application/json.
func NewAPIRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(jsonContentType)
	r.Use(deps.Auth.Authenticate)

	registerSnippetRoutes(r, deps.Snippets, deps.Tags)
	registerTagRoutes(r, deps.Tags, deps.Snippets)
	registerAnnotateRoutes(r, deps.Annotator)
	registerTokenRoutes(r, deps.TokenStore)
	registerUserRoutes(r, deps.Users)

	return r
}

// jsonContentType sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
