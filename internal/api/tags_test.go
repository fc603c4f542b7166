package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/snipvault/snipvault/internal/api"
	"github.com/snipvault/snipvault/internal/store"
)

func TestTags_List_WithCounts(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)
	ctx := context.Background()

	sn, err := env.SnippetStore.Create(ctx, user.ID, store.SnippetFields{Title: "tagged", Code: "x"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	if _, err := env.SnippetStore.SetTags(ctx, user.ID, sn.ID, []string{"used"}); err != nil {
		t.Fatalf("set tags: %v", err)
	}
	if _, err := env.TagStore.Upsert(ctx, user.ID, "unused"); err != nil {
		t.Fatalf("upsert tag: %v", err)
	}

	req := httptest.NewRequest("GET", "/tags", nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp api.TagListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tags) != 2 {
		t.Fatalf("len(tags) = %d, want 2", len(resp.Tags))
	}

	counts := map[string]int{}
	for _, tag := range resp.Tags {
		counts[tag.Name] = tag.SnippetCount
	}
	if counts["used"] != 1 || counts["unused"] != 0 {
		t.Errorf("counts = %v, want used=1 unused=0", counts)
	}
}

func TestTags_Create_Created(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	req := httptest.NewRequest("POST", "/tags", bytes.NewBufferString(`{"name":" golang "}`))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp api.TagResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Names are trimmed before storage.
	if resp.Name != "golang" {
		t.Errorf("name = %q, want %q", resp.Name, "golang")
	}
}

func TestTags_Create_ExistingReturned(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	existing, err := env.TagStore.Upsert(context.Background(), user.ID, "dup")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	req := httptest.NewRequest("POST", "/tags", bytes.NewBufferString(`{"name":"dup"}`))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var resp api.TagResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != existing.ID {
		t.Errorf("ID = %q, want existing tag %q", resp.ID, existing.ID)
	}
}

func TestTags_Create_EmptyName(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	req := httptest.NewRequest("POST", "/tags", bytes.NewBufferString(`{"name":"   "}`))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTags_Delete_NoContent(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	tag, err := env.TagStore.Upsert(context.Background(), user.ID, "doomed")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/tags/"+tag.ID, nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestTags_Delete_NotFound(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	req := httptest.NewRequest("DELETE", "/tags/no-such-id", nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestTags_Snippets_ByName(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)
	ctx := context.Background()

	sn, err := env.SnippetStore.Create(ctx, user.ID, store.SnippetFields{Title: "wanted", Code: "x"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	if _, err := env.SnippetStore.SetTags(ctx, user.ID, sn.ID, []string{"filter"}); err != nil {
		t.Fatalf("set tags: %v", err)
	}

	req := httptest.NewRequest("GET", "/tags/filter/snippets", nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp api.SnippetListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Snippets) != 1 || resp.Snippets[0].ID != sn.ID {
		t.Errorf("snippets = %v, want just %q", resp.Snippets, sn.ID)
	}
}

func TestTags_Snippets_UnknownTag(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	req := httptest.NewRequest("GET", "/tags/ghost/snippets", nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
