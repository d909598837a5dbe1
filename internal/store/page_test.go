package store

import (
	"testing"

	"github.com/google/uuid"

	"instipress/internal/models"
	"instipress/internal/pagetree"
)

// TestPageLifecycle exercises create, lookup, update, trash, restore, and
// purge against a real database.
func TestPageLifecycle(t *testing.T) {
	db := testDB(t)
	author := testUser(t, db, "page-lifecycle@test.local")
	pages := NewPageStore(db)
	t.Cleanup(func() { cleanPages(t, db, "lifecycle-root") })

	created, err := pages.Create(&models.Page{
		Title:    "Lifecycle Root",
		Slug:     "lifecycle-root",
		Status:   models.PageStatusDraft,
		AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := pages.FindBySlug("lifecycle-root")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatal("created page not found by slug")
	}

	// Draft pages are invisible to the published lookup.
	pub, err := pages.FindPublishedBySlug("lifecycle-root")
	if err != nil {
		t.Fatalf("FindPublishedBySlug: %v", err)
	}
	if pub != nil {
		t.Error("draft page should not be returned by published lookup")
	}

	created.Status = models.PageStatusPublished
	if err := pages.Update(created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	pub, err = pages.FindPublishedBySlug("lifecycle-root")
	if err != nil {
		t.Fatalf("FindPublishedBySlug after publish: %v", err)
	}
	if pub == nil {
		t.Fatal("published page should be visible")
	}

	// Trash hides the page from published lookups but FindBySlug still
	// sees it, so the slug stays reserved.
	if err := pages.Trash(created.ID); err != nil {
		t.Fatalf("Trash: %v", err)
	}
	pub, _ = pages.FindPublishedBySlug("lifecycle-root")
	if pub != nil {
		t.Error("trashed page should not be returned by published lookup")
	}
	reserved, _ := pages.FindBySlug("lifecycle-root")
	if reserved == nil {
		t.Error("trashed page should still own its slug")
	}

	trash, err := pages.ListTrash()
	if err != nil {
		t.Fatalf("ListTrash: %v", err)
	}
	inTrash := false
	for _, p := range trash {
		if p.ID == created.ID {
			inTrash = true
		}
	}
	if !inTrash {
		t.Error("trashed page missing from trash listing")
	}

	if err := pages.Restore(created.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	pub, _ = pages.FindPublishedBySlug("lifecycle-root")
	if pub == nil {
		t.Error("restored page should be visible again")
	}

	if err := pages.Purge(created.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	gone, _ := pages.FindByID(created.ID)
	if gone != nil {
		t.Error("purged page should be gone")
	}
}

// TestPageTreeOverStore runs the pagetree validators and cascade against
// the real page store, covering the wiring the admin handlers rely on.
func TestPageTreeOverStore(t *testing.T) {
	db := testDB(t)
	author := testUser(t, db, "page-tree@test.local")
	pages := NewPageStore(db)
	tree := pagetree.New(pages, pagetree.DefaultMaxDepth)
	t.Cleanup(func() { cleanPages(t, db, "tree-docs", "tree-guides") })

	root, err := pages.Create(&models.Page{
		Title: "Docs", Slug: "tree-docs", Status: models.PageStatusPublished, AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := pages.Create(&models.Page{
		Title: "Intro", Slug: "tree-docs/intro", ParentID: &root.ID,
		Status: models.PageStatusPublished, AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	grandchild, err := pages.Create(&models.Page{
		Title: "Setup", Slug: "tree-docs/intro/setup", ParentID: &child.ID,
		Status: models.PageStatusPublished, AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create grandchild: %v", err)
	}

	// Path building walks the parent chain.
	path, err := tree.BuildPath(grandchild.ID)
	if err != nil {
		t.Fatalf("BuildPath: %v", err)
	}
	if path != "tree-docs/intro/setup" {
		t.Errorf("BuildPath = %q, want %q", path, "tree-docs/intro/setup")
	}

	// Validation catches a duplicate slug through the store.
	err = tree.ValidateSlug("tree-docs/intro", &root.ID, uuid.Nil)
	if pagetree.CodeOf(err) != pagetree.CodeSlugConflict {
		t.Errorf("expected slug_conflict, got %v", err)
	}

	// Rename the root and cascade; the whole subtree follows.
	if err := pages.SetSlug(root.ID, "tree-guides"); err != nil {
		t.Fatalf("SetSlug: %v", err)
	}
	if err := tree.CascadeRename(root.ID, "tree-guides"); err != nil {
		t.Fatalf("CascadeRename: %v", err)
	}

	moved, err := pages.FindBySlug("tree-guides/intro/setup")
	if err != nil {
		t.Fatalf("FindBySlug after cascade: %v", err)
	}
	if moved == nil || moved.ID != grandchild.ID {
		t.Error("grandchild slug was not rewritten by cascade")
	}

	// Cycle guard sees the persisted tree.
	err = tree.GuardCycle(root.ID, &grandchild.ID)
	if pagetree.CodeOf(err) != pagetree.CodeCircularParent {
		t.Errorf("expected circular_parent, got %v", err)
	}
}

// TestChildrenSpanTrash verifies that the structural child lookup sees
// trashed rows while the display listings do not. Restore, purge, and
// cascade renames traverse the subtree through Children after trash has
// soft-deleted every row in it.
func TestChildrenSpanTrash(t *testing.T) {
	db := testDB(t)
	author := testUser(t, db, "page-trash-span@test.local")
	pages := NewPageStore(db)
	t.Cleanup(func() { cleanPages(t, db, "span-root") })

	root, err := pages.Create(&models.Page{
		Title: "Span Root", Slug: "span-root", Status: models.PageStatusDraft, AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := pages.Create(&models.Page{
		Title: "Span Child", Slug: "span-root/child", ParentID: &root.ID,
		Status: models.PageStatusDraft, AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if err := pages.Trash(root.ID); err != nil {
		t.Fatalf("trash root: %v", err)
	}
	if err := pages.Trash(child.ID); err != nil {
		t.Fatalf("trash child: %v", err)
	}

	kids, err := pages.Children(root.ID)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	found := false
	for _, k := range kids {
		if k.ID == child.ID {
			found = true
		}
	}
	if !found {
		t.Error("trashed child missing from structural child lookup")
	}

	// The flat admin listing still hides trashed rows.
	listed, err := pages.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, p := range listed {
		if p.ID == child.ID || p.ID == root.ID {
			t.Errorf("trashed page %q leaked into the live listing", p.Slug)
		}
	}
}

// TestPageTreeNesting verifies Tree builds the nested structure with
// depths set.
func TestPageTreeNesting(t *testing.T) {
	db := testDB(t)
	author := testUser(t, db, "page-nesting@test.local")
	pages := NewPageStore(db)
	t.Cleanup(func() { cleanPages(t, db, "nest-root") })

	root, err := pages.Create(&models.Page{
		Title: "Nest Root", Slug: "nest-root", Status: models.PageStatusDraft, AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	if _, err := pages.Create(&models.Page{
		Title: "Nest Child", Slug: "nest-root/child", ParentID: &root.ID,
		Status: models.PageStatusDraft, AuthorID: author.ID,
	}); err != nil {
		t.Fatalf("create child: %v", err)
	}

	tree, err := pages.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	for _, node := range tree {
		if node.ID != root.ID {
			continue
		}
		if node.Depth != 0 {
			t.Errorf("root depth = %d, want 0", node.Depth)
		}
		if len(node.Children) != 1 {
			t.Fatalf("root children = %d, want 1", len(node.Children))
		}
		if node.Children[0].Depth != 1 {
			t.Errorf("child depth = %d, want 1", node.Children[0].Depth)
		}
		return
	}
	t.Error("root page missing from tree")
}

// TestSetHomepage verifies the single-homepage transaction.
func TestSetHomepage(t *testing.T) {
	db := testDB(t)
	author := testUser(t, db, "page-homepage@test.local")
	pages := NewPageStore(db)
	t.Cleanup(func() { cleanPages(t, db, "home-a", "home-b") })

	a, err := pages.Create(&models.Page{
		Title: "Home A", Slug: "home-a", Status: models.PageStatusPublished, AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := pages.Create(&models.Page{
		Title: "Home B", Slug: "home-b", Status: models.PageStatusPublished, AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if err := pages.SetHomepage(a.ID); err != nil {
		t.Fatalf("SetHomepage a: %v", err)
	}
	if err := pages.SetHomepage(b.ID); err != nil {
		t.Fatalf("SetHomepage b: %v", err)
	}

	home, err := pages.FindHomepage()
	if err != nil {
		t.Fatalf("FindHomepage: %v", err)
	}
	if home == nil || home.ID != b.ID {
		t.Error("homepage flag should have moved to page B")
	}

	aAfter, _ := pages.FindByID(a.ID)
	if aAfter == nil || aAfter.IsHomepage {
		t.Error("page A should have lost the homepage flag")
	}
}
