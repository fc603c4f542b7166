package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/config"
	"github.com/snipvault/snipvault/internal/db"
	"github.com/snipvault/snipvault/internal/handler"
	"github.com/snipvault/snipvault/internal/llm"
	"github.com/snipvault/snipvault/internal/metrics"
	"github.com/snipvault/snipvault/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			sessionManager := auth.NewSessionManager(database, cfg.DB.Driver, cfg.SessionLifetime, !cfg.InsecureCookies)

			ctx := context.Background()
			oidcProvider, err := auth.NewProvider(ctx, cfg)
			if err != nil {
				return err
			}

			userStore := store.NewUserStore(database)
			tagStore := store.NewTagStore(database)
			snippetStore := store.NewSnippetStore(database, tagStore)
			tokenStore := auth.NewSQLTokenStore(database)

			annotator, err := llm.New(cfg)
			if err != nil {
				return err
			}

			authHandlers := auth.NewHandlers(oidcProvider, sessionManager, userStore, cfg.AdminEmail, !cfg.InsecureCookies)

			router := handler.NewRouter(handler.Deps{
				SessionManager: sessionManager,
				AuthHandlers:   authHandlers,
				SnippetStore:   snippetStore,
				TagStore:       tagStore,
				UserStore:      userStore,
				TokenStore:     tokenStore,
				Annotator:      annotator,
			})

			go refreshGauges(ctx, snippetStore, userStore)

			log.Printf("listening on %s", cfg.HTTP.Addr)
			return http.ListenAndServe(cfg.HTTP.Addr, router)
		},
	}
}

// refreshGauges periodically updates the database-backed gauges exposed
// at /metrics.
func refreshGauges(ctx context.Context, snippets *store.SnippetStore, users *store.UserStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		if n, err := snippets.CountActive(ctx); err == nil {
			metrics.SnippetsTotal.Set(float64(n))
		}
		if n, err := users.Count(ctx); err == nil {
			metrics.UsersTotal.Set(float64(n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
