package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/snipvault/snipvault/internal/store"
	"github.com/snipvault/snipvault/internal/testutil"
)

func newTagTestEnv(t *testing.T) (*store.TagStore, *store.SnippetStore, *store.UserStore) {
	t.Helper()
	db := testutil.NewTestDB(t)
	tags := store.NewTagStore(db)
	snippets := store.NewSnippetStore(db, tags)
	users := store.NewUserStore(db)
	return tags, snippets, users
}

func seedUser(t *testing.T, us *store.UserStore, subject, email string) *store.User {
	t.Helper()
	u, err := us.Upsert(context.Background(), "test", subject, email, "Test User", "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestTagStore_Upsert_Create(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	tag, err := ts.Upsert(ctx, u.ID, "golang")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if tag.Name != "golang" {
		t.Errorf("name = %q, want %q", tag.Name, "golang")
	}
	if tag.OwnerID != u.ID {
		t.Errorf("owner = %q, want %q", tag.OwnerID, u.ID)
	}
	if tag.ID == "" {
		t.Error("expected non-empty ID")
	}
}

func TestTagStore_Upsert_Idempotent(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	tag1, err := ts.Upsert(ctx, u.ID, "golang")
	if err != nil {
		t.Fatalf("Upsert first: %v", err)
	}
	tag2, err := ts.Upsert(ctx, u.ID, "golang")
	if err != nil {
		t.Fatalf("Upsert second: %v", err)
	}
	if tag1.ID != tag2.ID {
		t.Errorf("expected same ID, got %q and %q", tag1.ID, tag2.ID)
	}
}

func TestTagStore_Upsert_CaseSensitive(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	lower, err := ts.Upsert(ctx, u.ID, "go")
	if err != nil {
		t.Fatalf("Upsert lower: %v", err)
	}
	upper, err := ts.Upsert(ctx, u.ID, "Go")
	if err != nil {
		t.Fatalf("Upsert upper: %v", err)
	}
	if lower.ID == upper.ID {
		t.Error("expected distinct tags for names differing only in case")
	}
}

func TestTagStore_Upsert_OwnerScoped(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, us, "sub1", "alice@example.com")
	bob := seedUser(t, us, "sub2", "bob@example.com")

	aliceTag, err := ts.Upsert(ctx, alice.ID, "shared-name")
	if err != nil {
		t.Fatalf("Upsert alice: %v", err)
	}
	bobTag, err := ts.Upsert(ctx, bob.ID, "shared-name")
	if err != nil {
		t.Fatalf("Upsert bob: %v", err)
	}
	if aliceTag.ID == bobTag.ID {
		t.Error("expected distinct tag rows per owner for the same name")
	}
}

func TestTagStore_Upsert_ConcurrentSameName(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	// Two callers race to create the same fresh name. The loser's insert hits
	// the unique index and must re-read the winner's row instead of failing,
	// so both see the same tag and exactly one row exists.
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("race-%d", i)
		start := make(chan struct{})
		results := make([]*store.Tag, 2)
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				<-start
				results[j], errs[j] = ts.Upsert(ctx, u.ID, name)
			}(j)
		}
		close(start)
		wg.Wait()

		for j, err := range errs {
			if err != nil {
				t.Fatalf("Upsert %q caller %d: %v", name, j, err)
			}
		}
		if results[0].ID != results[1].ID {
			t.Errorf("%q: callers got different rows %q and %q", name, results[0].ID, results[1].ID)
		}

		got, err := ts.GetByName(ctx, u.ID, name)
		if err != nil {
			t.Fatalf("GetByName %q: %v", name, err)
		}
		if got.ID != results[0].ID {
			t.Errorf("%q: stored row %q does not match callers' %q", name, got.ID, results[0].ID)
		}
	}

	all, err := ts.ListByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(all) != 10 {
		t.Errorf("owner has %d tags, want 10", len(all))
	}
}

func TestTagStore_GetByName(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	created, err := ts.Upsert(ctx, u.ID, "mytag")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := ts.GetByName(ctx, u.ID, "mytag")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
}

func TestTagStore_GetByName_NotFound(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	_, err := ts.GetByName(ctx, u.ID, "nonexistent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByName(nonexistent) = %v, want ErrNotFound", err)
	}
}

func TestTagStore_GetByName_OtherOwner(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, us, "sub1", "alice@example.com")
	bob := seedUser(t, us, "sub2", "bob@example.com")

	if _, err := ts.Upsert(ctx, alice.ID, "private"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	_, err := ts.GetByName(ctx, bob.ID, "private")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByName(other owner's tag) = %v, want ErrNotFound", err)
	}
}

func TestTagStore_ListByOwner(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	if _, err := ts.Upsert(ctx, u.ID, "beta"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := ts.Upsert(ctx, u.ID, "alpha"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	tags, err := ts.ListByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("len = %d, want 2", len(tags))
	}
	// Ordered by name ASC.
	if tags[0].Name != "alpha" {
		t.Errorf("first tag = %q, want %q", tags[0].Name, "alpha")
	}
}

func TestTagStore_ListWithCounts(t *testing.T) {
	ts, ss, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	sn, err := ss.Create(ctx, u.ID, store.SnippetFields{Title: "counted", Code: "x := 1"})
	if err != nil {
		t.Fatalf("Create snippet: %v", err)
	}
	if _, err := ss.SetTags(ctx, u.ID, sn.ID, []string{"popular"}); err != nil {
		t.Fatalf("SetTags: %v", err)
	}

	// A tag with no snippets still appears, with a zero count.
	if _, err := ts.Upsert(ctx, u.ID, "orphan"); err != nil {
		t.Fatalf("Upsert orphan: %v", err)
	}

	tags, err := ts.ListWithCounts(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListWithCounts: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("len = %d, want 2", len(tags))
	}

	byName := make(map[string]int)
	for _, tag := range tags {
		byName[tag.Name] = tag.SnippetCount
	}
	if byName["popular"] != 1 {
		t.Errorf("popular count = %d, want 1", byName["popular"])
	}
	if byName["orphan"] != 0 {
		t.Errorf("orphan count = %d, want 0", byName["orphan"])
	}
}

func TestTagStore_ListWithCounts_ExcludesTrashed(t *testing.T) {
	ts, ss, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	sn, err := ss.Create(ctx, u.ID, store.SnippetFields{Title: "trashed", Code: "x := 1"})
	if err != nil {
		t.Fatalf("Create snippet: %v", err)
	}
	if _, err := ss.SetTags(ctx, u.ID, sn.ID, []string{"tagged"}); err != nil {
		t.Fatalf("SetTags: %v", err)
	}
	if err := ss.SetDeleted(ctx, u.ID, sn.ID, true); err != nil {
		t.Fatalf("SetDeleted: %v", err)
	}

	tags, err := ts.ListWithCounts(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListWithCounts: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("len = %d, want 1", len(tags))
	}
	if tags[0].SnippetCount != 0 {
		t.Errorf("count = %d, want 0 for a tag whose only snippet is trashed", tags[0].SnippetCount)
	}
}

func TestTagStore_Delete(t *testing.T) {
	ts, ss, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	sn, err := ss.Create(ctx, u.ID, store.SnippetFields{Title: "tagged", Code: "x := 1"})
	if err != nil {
		t.Fatalf("Create snippet: %v", err)
	}
	set, err := ss.SetTags(ctx, u.ID, sn.ID, []string{"doomed", "kept"})
	if err != nil {
		t.Fatalf("SetTags: %v", err)
	}

	var doomed *store.Tag
	for _, tag := range set {
		if tag.Name == "doomed" {
			doomed = tag
		}
	}
	if doomed == nil {
		t.Fatal("expected doomed tag in SetTags result")
	}

	if err := ts.Delete(ctx, u.ID, doomed.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// The association is gone but the snippet and its other tag survive.
	remaining, err := ss.ListTags(ctx, sn.ID)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Name != "kept" {
		t.Errorf("remaining tags = %v, want just %q", remaining, "kept")
	}

	if _, err := ts.GetByName(ctx, u.ID, "doomed"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByName(doomed) = %v, want ErrNotFound", err)
	}
}

func TestTagStore_Delete_NotFound(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, us, "sub1", "test@example.com")

	err := ts.Delete(ctx, u.ID, "no-such-id")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete(unknown) = %v, want ErrNotFound", err)
	}
}

func TestTagStore_Delete_OtherOwner(t *testing.T) {
	ts, _, us := newTagTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, us, "sub1", "alice@example.com")
	bob := seedUser(t, us, "sub2", "bob@example.com")

	tag, err := ts.Upsert(ctx, alice.ID, "private")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := ts.Delete(ctx, bob.ID, tag.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete(other owner's tag) = %v, want ErrNotFound", err)
	}

	// Alice's tag is untouched.
	if _, err := ts.GetByName(ctx, alice.ID, "private"); err != nil {
		t.Errorf("GetByName after failed delete: %v", err)
	}
}
