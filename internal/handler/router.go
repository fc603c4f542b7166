package handler

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/snipvault/snipvault/docs/swagger"
	"github.com/snipvault/snipvault/internal/api"
	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/llm"
	"github.com/snipvault/snipvault/internal/store"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	SessionManager *scs.SessionManager
	AuthHandlers   *auth.Handlers
	SnippetStore   *store.SnippetStore
	TagStore       *store.TagStore
	UserStore      *store.UserStore
	TokenStore     auth.TokenStore
	Annotator      llm.Annotator
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(deps.SessionManager.LoadAndSave)

	// Auth routes (no auth required)
	r.Get("/auth/login", deps.AuthHandlers.Login)
	r.Get("/auth/callback", deps.AuthHandlers.Callback)
	r.Post("/auth/logout", deps.AuthHandlers.Logout)

	// Operational endpoints
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI, no auth required.
	r.Get("/api/docs/*", httpSwagger.WrapHandler)

	// API sub-router. API routes accept Bearer tokens first and fall back
	// to the browser session, so the UI client and token clients share them.
	apiAuth := auth.NewAPIAuthMiddleware(deps.TokenStore, deps.UserStore, deps.SessionManager)
	apiRouter := api.NewAPIRouter(api.Deps{
		Auth:       apiAuth,
		Snippets:   deps.SnippetStore,
		Tags:       deps.TagStore,
		Users:      deps.UserStore,
		TokenStore: deps.TokenStore,
		Annotator:  deps.Annotator,
	})
	r.Mount("/api/v1", apiRouter)

	return r
}
