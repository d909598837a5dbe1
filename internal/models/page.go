// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PageStatus represents the publishing state of a page.
type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// Page is a node in the site tree. Its slug holds the full hierarchical
// path: root pages carry a bare segment ("about"), nested pages carry the
// parent path plus their own segment ("about/team"). The slug of every
// non-root page must stay prefixed by its parent's slug; the pagetree
// package enforces this and rewrites descendants when an ancestor is
// renamed.
type Page struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	ParentID        *uuid.UUID      `json:"parent_id"`
	IsHomepage      bool            `json:"is_homepage"`
	Status          PageStatus      `json:"status"`
	Blocks          json.RawMessage `json:"blocks"`
	MetaDescription *string         `json:"meta_description,omitempty"`
	SortOrder       int             `json:"sort_order"`
	AuthorID        uuid.UUID       `json:"author_id"`
	TrashedAt       *time.Time      `json:"trashed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Virtual fields populated by store methods.
	Children []Page `json:"children,omitempty"`
	Depth    int    `json:"depth"`
}

// IsPublished returns true if the page is published and not in the trash.
func (p *Page) IsPublished() bool {
	return p.Status == PageStatusPublished && p.TrashedAt == nil
}

// IsTrashed returns true if the page has been soft-deleted.
func (p *Page) IsTrashed() bool {
	return p.TrashedAt != nil
}

// IsRoot returns true if the page has no parent.
func (p *Page) IsRoot() bool {
	return p.ParentID == nil
}

// Segment returns the trailing path segment of the page's slug.
func (p *Page) Segment() string {
	if i := strings.LastIndex(p.Slug, "/"); i >= 0 {
		return p.Slug[i+1:]
	}
	return p.Slug
}
