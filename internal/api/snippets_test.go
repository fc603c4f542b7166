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

func TestSnippets_List_OK(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	if _, err := env.SnippetStore.Create(context.Background(), user.ID, store.SnippetFields{Title: "one", Code: "x"}); err != nil {
		t.Fatalf("create snippet: %v", err)
	}

	req := httptest.NewRequest("GET", "/snippets", nil)
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
	if len(resp.Snippets) != 1 {
		t.Errorf("len(snippets) = %d, want 1", len(resp.Snippets))
	}
}

func TestSnippets_List_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest("GET", "/snippets", nil)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSnippets_Create_Created(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	body := `{"title":"hello","code":"print(1)","language":"python","tags":["py","scripts"]}`
	req := httptest.NewRequest("POST", "/snippets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp api.SnippetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title != "hello" {
		t.Errorf("title = %q, want %q", resp.Title, "hello")
	}
	if len(resp.Tags) != 2 {
		t.Errorf("tags = %v, want two tags", resp.Tags)
	}
}

func TestSnippets_Create_MissingTitle(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	body := `{"code":"x"}`
	req := httptest.NewRequest("POST", "/snippets", bytes.NewBufferString(body))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSnippets_Create_InvalidTag(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	body := `{"title":"hello","code":"x","tags":["ok","  "]}`
	req := httptest.NewRequest("POST", "/snippets", bytes.NewBufferString(body))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}

	// The snippet must not have been created.
	snippets, err := env.SnippetStore.ListByOwner(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snippets) != 0 {
		t.Errorf("snippets = %d, want 0 after rejected create", len(snippets))
	}
}

func TestSnippets_Get_NotFoundForOtherOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := seedUser(t, env, "alice@example.com")
	bob := seedUser(t, env, "bob@example.com")
	bobToken := seedToken(t, env, bob.ID)

	sn, err := env.SnippetStore.Create(context.Background(), alice.ID, store.SnippetFields{Title: "private", Code: "x"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}

	req := httptest.NewRequest("GET", "/snippets/"+sn.ID, nil)
	authRequest(req, bobToken)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSnippets_Update_ReplacesTags(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)
	ctx := context.Background()

	sn, err := env.SnippetStore.Create(ctx, user.ID, store.SnippetFields{Title: "v1", Code: "a"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	if _, err := env.SnippetStore.SetTags(ctx, user.ID, sn.ID, []string{"old"}); err != nil {
		t.Fatalf("set tags: %v", err)
	}

	body := `{"title":"v2","code":"b","tags":["new"]}`
	req := httptest.NewRequest("PUT", "/snippets/"+sn.ID, bytes.NewBufferString(body))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp api.SnippetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tags) != 1 || resp.Tags[0] != "new" {
		t.Errorf("tags = %v, want [new]", resp.Tags)
	}
}

func TestSnippets_Update_AbsentTagsFieldKeepsTags(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)
	ctx := context.Background()

	sn, err := env.SnippetStore.Create(ctx, user.ID, store.SnippetFields{Title: "v1", Code: "a"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	if _, err := env.SnippetStore.SetTags(ctx, user.ID, sn.ID, []string{"keep"}); err != nil {
		t.Fatalf("set tags: %v", err)
	}

	body := `{"title":"v2","code":"b"}`
	req := httptest.NewRequest("PUT", "/snippets/"+sn.ID, bytes.NewBufferString(body))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp api.SnippetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tags) != 1 || resp.Tags[0] != "keep" {
		t.Errorf("tags = %v, want [keep] untouched", resp.Tags)
	}
}

func TestSnippets_Update_EmptyTagsClears(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)
	ctx := context.Background()

	sn, err := env.SnippetStore.Create(ctx, user.ID, store.SnippetFields{Title: "v1", Code: "a"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	if _, err := env.SnippetStore.SetTags(ctx, user.ID, sn.ID, []string{"gone"}); err != nil {
		t.Fatalf("set tags: %v", err)
	}

	body := `{"title":"v2","code":"b","tags":[]}`
	req := httptest.NewRequest("PUT", "/snippets/"+sn.ID, bytes.NewBufferString(body))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp api.SnippetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tags) != 0 {
		t.Errorf("tags = %v, want empty", resp.Tags)
	}
}

func TestSnippets_FavoriteAndTrash(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)
	ctx := context.Background()

	sn, err := env.SnippetStore.Create(ctx, user.ID, store.SnippetFields{Title: "flagged", Code: "x"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}

	req := httptest.NewRequest("PATCH", "/snippets/"+sn.ID+"/favorite", bytes.NewBufferString(`{"is_favorite":true}`))
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("favorite status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest("GET", "/snippets/favorites", nil)
	authRequest(req, token)
	rec = httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	var favs api.SnippetListResponse
	if err := json.NewDecoder(rec.Body).Decode(&favs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(favs.Snippets) != 1 {
		t.Fatalf("favorites = %d, want 1", len(favs.Snippets))
	}

	req = httptest.NewRequest("PATCH", "/snippets/"+sn.ID+"/trash", bytes.NewBufferString(`{"is_deleted":true}`))
	authRequest(req, token)
	rec = httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("trash status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest("GET", "/snippets/trash", nil)
	authRequest(req, token)
	rec = httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	var trash api.SnippetListResponse
	if err := json.NewDecoder(rec.Body).Decode(&trash); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(trash.Snippets) != 1 {
		t.Errorf("trash = %d, want 1", len(trash.Snippets))
	}

	req = httptest.NewRequest("GET", "/snippets", nil)
	authRequest(req, token)
	rec = httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	var live api.SnippetListResponse
	if err := json.NewDecoder(rec.Body).Decode(&live); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(live.Snippets) != 0 {
		t.Errorf("live = %d, want 0 after trashing", len(live.Snippets))
	}
}

func TestSnippets_Delete_NoContent(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	sn, err := env.SnippetStore.Create(context.Background(), user.ID, store.SnippetFields{Title: "doomed", Code: "x"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/snippets/"+sn.ID, nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest("GET", "/snippets/"+sn.ID, nil)
	authRequest(req, token)
	rec = httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSnippets_Search(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)
	ctx := context.Background()

	if _, err := env.SnippetStore.Create(ctx, user.ID, store.SnippetFields{Title: "go helper", Code: "fmt.Println", Language: "go"}); err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	if _, err := env.SnippetStore.Create(ctx, user.ID, store.SnippetFields{Title: "py helper", Code: "print", Language: "python"}); err != nil {
		t.Fatalf("create snippet: %v", err)
	}

	body := `{"query":"helper","language":"go"}`
	req := httptest.NewRequest("POST", "/snippets/search", bytes.NewBufferString(body))
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
	if len(resp.Snippets) != 1 || resp.Snippets[0].Language != "go" {
		t.Errorf("search results = %v, want one go snippet", resp.Snippets)
	}
}
