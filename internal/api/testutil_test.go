package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/snipvault/snipvault/internal/api"
	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/llm"
	"github.com/snipvault/snipvault/internal/store"
	"github.com/snipvault/snipvault/internal/testutil"
)

// testEnv holds all stores and helpers needed for API integration tests.
type testEnv struct {
	Router       http.Handler
	SnippetStore *store.SnippetStore
	TagStore     *store.TagStore
	UserStore    *store.UserStore
	TokenStore   *auth.SQLTokenStore
	Annotator    *fakeAnnotator
}

// fakeAnnotator returns a canned response, or an error when Err is set.
type fakeAnnotator struct {
	Result string
	Err    error
}

func (f *fakeAnnotator) Annotate(ctx context.Context, req llm.AnnotateRequest) (*llm.AnnotateResponse, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &llm.AnnotateResponse{AnnotatedCode: f.Result}, nil
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full API router with real stores.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	tags := store.NewTagStore(db)
	snippets := store.NewSnippetStore(db, tags)
	us := store.NewUserStore(db)
	ts := auth.NewSQLTokenStore(db)
	annotator := &fakeAnnotator{Result: "// annotated"}

	deps := api.Deps{
		Auth:       auth.NewAPIAuthMiddleware(ts, us, nil),
		Snippets:   snippets,
		Tags:       tags,
		Users:      us,
		TokenStore: ts,
		Annotator:  annotator,
	}

	return &testEnv{
		Router:       api.NewAPIRouter(deps),
		SnippetStore: snippets,
		TagStore:     tags,
		UserStore:    us,
		TokenStore:   ts,
		Annotator:    annotator,
	}
}

// newRouterWithoutAnnotator wires the same stores with no AI provider.
func newRouterWithoutAnnotator(t *testing.T, env *testEnv) http.Handler {
	t.Helper()
	return api.NewAPIRouter(api.Deps{
		Auth:       auth.NewAPIAuthMiddleware(env.TokenStore, env.UserStore, nil),
		Snippets:   env.SnippetStore,
		Tags:       env.TagStore,
		Users:      env.UserStore,
		TokenStore: env.TokenStore,
	})
}

// seedUser creates a user and returns the user record.
func seedUser(t *testing.T, env *testEnv, email string) *store.User {
	t.Helper()
	u, err := env.UserStore.Upsert(context.Background(), "test", "sub-"+email, email, "Test User", "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedToken creates a real API token for a user and returns the plaintext Bearer value.
func seedToken(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := env.TokenStore.Create(context.Background(), userID, "test-token", hash, nil); err != nil {
		t.Fatalf("create token: %v", err)
	}
	return plaintext
}

// authRequest adds a Bearer token to the request.
func authRequest(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}
