// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pagetree

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidateSlug decides whether committing the proposed slug/parent pair
// would keep the tree invariants. excludingID is the page being updated so
// its own row does not count as a conflict; pass uuid.Nil on create.
// Checks run in order and the first failure wins, so the caller always
// gets one actionable reason:
//
//  1. a root page's slug must not contain a separator
//  2. a child's slug must be parent_slug plus exactly one new segment
//  3. the slug must be globally unique
//  4. no sibling may share the trailing segment
func (t *Tree) ValidateSlug(slug string, parentID *uuid.UUID, excludingID uuid.UUID) error {
	if parentID == nil {
		if strings.Contains(slug, "/") {
			return &Error{
				Code:   CodeInvalidSlugStructure,
				Reason: "root pages cannot have nested slugs",
			}
		}
	} else {
		parent, err := t.store.FindByID(*parentID)
		if err != nil {
			return fmt.Errorf("validate slug: %w", err)
		}
		if parent == nil {
			return &Error{
				Code:   CodeNotFound,
				Reason: "parent page not found",
				PageID: *parentID,
			}
		}
		prefix := parent.Slug + "/"
		if !strings.HasPrefix(slug, prefix) {
			return &Error{
				Code:   CodeInvalidSlugStructure,
				Reason: fmt.Sprintf("child slug must start with the parent path %q", prefix),
			}
		}
		segment := slug[len(prefix):]
		if segment == "" || strings.Contains(segment, "/") {
			return &Error{
				Code:   CodeInvalidSlugStructure,
				Reason: "child slug must add exactly one non-empty segment to the parent path",
			}
		}
	}

	existing, err := t.store.FindBySlug(slug)
	if err != nil {
		return fmt.Errorf("validate slug: %w", err)
	}
	if existing != nil && existing.ID != excludingID {
		return &Error{
			Code:   CodeSlugConflict,
			Reason: fmt.Sprintf("slug %q already exists", slug),
			PageID: existing.ID,
		}
	}

	siblings, err := t.store.Siblings(parentID)
	if err != nil {
		return fmt.Errorf("validate slug: %w", err)
	}
	segment := Segment(slug)
	for _, sib := range siblings {
		if sib.ID == excludingID {
			continue
		}
		if sib.Segment() == segment {
			return &Error{
				Code:   CodeSiblingSlugConflict,
				Reason: fmt.Sprintf("a sibling page already uses the segment %q", segment),
				PageID: sib.ID,
			}
		}
	}

	return nil
}

// ValidateDepth rejects a slug nested deeper than maxDepth segments.
// Pure function, no storage access.
func ValidateDepth(slug string, maxDepth int) error {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	if d := Depth(slug); d > maxDepth {
		return &Error{
			Code:   CodeDepthExceeded,
			Reason: fmt.Sprintf("slug is nested %d levels deep, the maximum is %d", d, maxDepth),
		}
	}
	return nil
}

// ValidateDepth applies the tree's configured depth limit to a slug.
func (t *Tree) ValidateDepth(slug string) error {
	return ValidateDepth(slug, t.maxDepth)
}

// ValidateHomepage rejects the homepage flag on a non-root page. Pure
// function, no storage access.
func ValidateHomepage(isHomepage bool, parentID *uuid.UUID) error {
	if isHomepage && parentID != nil {
		return &Error{
			Code:   CodeInvalidHomepageParent,
			Reason: "only a root page can be the homepage",
		}
	}
	return nil
}
