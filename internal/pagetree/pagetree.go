// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pagetree maintains the hierarchical slug invariants of the page
// tree. A page's slug holds its full path: root pages carry a bare segment,
// nested pages carry parent_path/segment. This package builds full paths,
// validates proposed slug/parent pairs before a write is committed,
// rewrites descendant slugs after a rename, and rejects parent assignments
// that would create a cycle.
//
// Validation is an optimistic pre-check: nothing here takes locks, so two
// concurrent writers proposing colliding slugs can race. The unique index
// on pages.slug is the backstop for global uniqueness; the validators exist
// to give the admin UI an actionable message before the write.
package pagetree

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"instipress/internal/models"
)

// DefaultMaxDepth is the default limit on slug nesting (number of
// /-separated segments).
const DefaultMaxDepth = 5

// Storage is the page-table access this package needs. The store package
// implements it against PostgreSQL; tests use an in-memory fake. Lookups
// return (nil, nil) when no row matches.
type Storage interface {
	// PageByID returns the page with the given id.
	FindByID(id uuid.UUID) (*models.Page, error)
	// PageBySlug returns the page with exactly the given slug, trashed
	// pages included — a trashed page still owns its slug.
	FindBySlug(slug string) (*models.Page, error)
	// Children returns the direct children of the given page, trashed
	// pages included. The structural tree spans the trash: a trashed page
	// keeps its slug and parent link, so restore, purge, and cascade
	// renames must traverse it.
	Children(parentID uuid.UUID) ([]models.Page, error)
	// Siblings returns the direct children of the given parent, trashed
	// pages included; a nil parent selects the root pages.
	Siblings(parentID *uuid.UUID) ([]models.Page, error)
	// SetSlug persists a new slug for the page and bumps its updated
	// timestamp.
	SetSlug(id uuid.UUID, slug string) error
}

// Tree wraps a Storage with the tree-maintenance operations.
type Tree struct {
	store    Storage
	maxDepth int
}

// New creates a Tree over the given storage. maxDepth limits slug nesting;
// values below 1 fall back to DefaultMaxDepth.
func New(store Storage, maxDepth int) *Tree {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Tree{store: store, maxDepth: maxDepth}
}

// Segment returns the trailing path segment of a slug.
func Segment(slug string) string {
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		return slug[i+1:]
	}
	return slug
}

// Depth returns the number of /-separated segments in a slug.
func Depth(slug string) int {
	if slug == "" {
		return 0
	}
	return strings.Count(slug, "/") + 1
}

// BuildPath computes a page's full slug path by walking parent links and
// joining each ancestor's own segment with "/", root-first. Returns a
// not_found error if the id or any ancestor is missing from storage.
func (t *Tree) BuildPath(id uuid.UUID) (string, error) {
	var segments []string
	seen := make(map[uuid.UUID]bool)

	cur := id
	for {
		if seen[cur] {
			return "", &Error{
				Code:   CodeCircularParent,
				Reason: fmt.Sprintf("parent chain of page %s contains a cycle", id),
				PageID: cur,
			}
		}
		seen[cur] = true

		page, err := t.store.FindByID(cur)
		if err != nil {
			return "", fmt.Errorf("build path: %w", err)
		}
		if page == nil {
			return "", &Error{
				Code:   CodeNotFound,
				Reason: fmt.Sprintf("page %s not found", cur),
				PageID: cur,
			}
		}

		segments = append(segments, page.Segment())
		if page.ParentID == nil {
			break
		}
		cur = *page.ParentID
	}

	// Reverse: we collected child-first, the path reads root-first.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/"), nil
}

// Descendants collects the ids of every page below the given one, via
// recursive child traversal.
func (t *Tree) Descendants(id uuid.UUID) ([]uuid.UUID, error) {
	children, err := t.store.Children(id)
	if err != nil {
		return nil, fmt.Errorf("descendants of %s: %w", id, err)
	}

	var ids []uuid.UUID
	for _, child := range children {
		ids = append(ids, child.ID)
		sub, err := t.Descendants(child.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, sub...)
	}
	return ids, nil
}

// GuardCycle rejects a parent reassignment that would make a page its own
// ancestor. A nil proposed parent (detaching to root) always passes.
func (t *Tree) GuardCycle(id uuid.UUID, proposedParentID *uuid.UUID) error {
	if proposedParentID == nil {
		return nil
	}
	if *proposedParentID == id {
		return &Error{
			Code:   CodeCircularParent,
			Reason: "a page cannot be its own parent",
			PageID: id,
		}
	}

	descendants, err := t.Descendants(id)
	if err != nil {
		return err
	}
	for _, d := range descendants {
		if d == *proposedParentID {
			return &Error{
				Code:   CodeCircularParent,
				Reason: "cannot set a descendant of this page as its parent",
				PageID: *proposedParentID,
			}
		}
	}
	return nil
}

// CascadeRename rewrites every descendant's slug after the page's own slug
// changed to newSlug, keeping each descendant at ancestor_path/segment.
// Traversal is pre-order: a child's new slug is derived from the parent
// prefix computed in memory, not re-read from storage. Re-running with the
// same newSlug is a no-op.
//
// There is no transaction around the walk. If a descendant update fails the
// renames applied so far stay in place and the returned error carries the
// offending page id; the caller must treat that as requiring manual
// inspection, not blind retry.
func (t *Tree) CascadeRename(id uuid.UUID, newSlug string) error {
	children, err := t.store.Children(id)
	if err != nil {
		return &Error{
			Code:   CodeCascadeUpdateFailed,
			Reason: fmt.Sprintf("cascade rename: listing children of %s: %v", id, err),
			PageID: id,
		}
	}

	for _, child := range children {
		childSlug := newSlug + "/" + child.Segment()
		if childSlug != child.Slug {
			if err := t.store.SetSlug(child.ID, childSlug); err != nil {
				return &Error{
					Code:   CodeCascadeUpdateFailed,
					Reason: fmt.Sprintf("cascade rename: updating page %s: %v", child.ID, err),
					PageID: child.ID,
				}
			}
		}
		if err := t.CascadeRename(child.ID, childSlug); err != nil {
			return err
		}
	}
	return nil
}
