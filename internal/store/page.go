// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"instipress/internal/models"
)

// PageStore handles all page-related database operations. It implements
// pagetree.Storage, so the tree validators and the cascade updater run
// directly against it.
type PageStore struct {
	db *sql.DB
}

// NewPageStore creates a new PageStore with the given database connection.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `id, title, slug, parent_id, is_homepage, status, blocks,
	meta_description, sort_order, author_id, trashed_at, created_at, updated_at`

// scanPage scans a row into a Page struct.
func scanPage(scanner interface{ Scan(...any) error }) (*models.Page, error) {
	var p models.Page
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.ParentID, &p.IsHomepage, &p.Status,
		&p.Blocks, &p.MetaDescription, &p.SortOrder, &p.AuthorID,
		&p.TrashedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPages collects all rows into a slice of pages.
func scanPages(rows *sql.Rows) ([]models.Page, error) {
	defer rows.Close()
	var pages []models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// FindByID retrieves a page by its UUID, trashed pages included.
// Returns nil if not found.
func (s *PageStore) FindByID(id uuid.UUID) (*models.Page, error) {
	row := s.db.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = $1`, id)
	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find page by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves the page holding exactly this slug, regardless of
// status or trash state — a trashed page still owns its slug for
// uniqueness purposes. Returns nil if not found.
func (s *PageStore) FindBySlug(slug string) (*models.Page, error) {
	row := s.db.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE slug = $1`, slug)
	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find page by slug: %w", err)
	}
	return p, nil
}

// FindPublishedBySlug retrieves a published, untrashed page by slug.
// Used for public page lookups. Returns nil if not found.
func (s *PageStore) FindPublishedBySlug(slug string) (*models.Page, error) {
	row := s.db.QueryRow(`
		SELECT `+pageColumns+` FROM pages
		WHERE slug = $1 AND status = 'published' AND trashed_at IS NULL
	`, slug)
	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find published page by slug: %w", err)
	}
	return p, nil
}

// FindHomepage retrieves the page flagged as homepage. Returns nil if no
// homepage is set.
func (s *PageStore) FindHomepage() (*models.Page, error) {
	row := s.db.QueryRow(`
		SELECT ` + pageColumns + ` FROM pages
		WHERE is_homepage AND trashed_at IS NULL
	`)
	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find homepage: %w", err)
	}
	return p, nil
}

// Children returns the direct children of a page, trashed rows included.
// The cascade updater and the descendant collector traverse the tree
// through this method: a trashed page still holds its slug and its parent
// link, so structural walks must see it or restore, purge, and cascade
// renames would skip trashed subtrees.
func (s *PageStore) Children(parentID uuid.UUID) ([]models.Page, error) {
	rows, err := s.db.Query(`
		SELECT `+pageColumns+` FROM pages
		WHERE parent_id = $1
		ORDER BY sort_order, title
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return scanPages(rows)
}

// Siblings returns the direct children of the given parent, trashed rows
// included; a nil parent selects the root pages.
func (s *PageStore) Siblings(parentID *uuid.UUID) ([]models.Page, error) {
	if parentID != nil {
		return s.Children(*parentID)
	}
	rows, err := s.db.Query(`
		SELECT ` + pageColumns + ` FROM pages
		WHERE parent_id IS NULL
		ORDER BY sort_order, title
	`)
	if err != nil {
		return nil, fmt.Errorf("list root pages: %w", err)
	}
	return scanPages(rows)
}

// List returns all untrashed pages ordered by slug, which groups each
// subtree together.
func (s *PageStore) List() ([]models.Page, error) {
	rows, err := s.db.Query(`
		SELECT ` + pageColumns + ` FROM pages
		WHERE trashed_at IS NULL
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return scanPages(rows)
}

// Tree returns untrashed pages as a nested tree structure.
func (s *PageStore) Tree() ([]models.Page, error) {
	flat, err := s.List()
	if err != nil {
		return nil, err
	}
	return buildTree(flat, nil, 0), nil
}

// buildTree recursively builds a tree from a flat list.
func buildTree(flat []models.Page, parentID *uuid.UUID, depth int) []models.Page {
	var result []models.Page
	for _, p := range flat {
		if ptrEqual(p.ParentID, parentID) {
			p.Depth = depth
			p.Children = buildTree(flat, &p.ID, depth+1)
			result = append(result, p)
		}
	}
	return result
}

// ptrEqual compares two *uuid.UUID for equality (both nil or same value).
func ptrEqual(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// ListTrash returns trashed pages, most recently trashed first.
func (s *PageStore) ListTrash() ([]models.Page, error) {
	rows, err := s.db.Query(`
		SELECT ` + pageColumns + ` FROM pages
		WHERE trashed_at IS NOT NULL
		ORDER BY trashed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	return scanPages(rows)
}

// Create inserts a new page and returns it with the generated ID. The
// caller must have run the pagetree validators first.
func (s *PageStore) Create(p *models.Page) (*models.Page, error) {
	blocks := p.Blocks
	if len(blocks) == 0 {
		blocks = []byte(`[]`)
	}

	row := s.db.QueryRow(`
		INSERT INTO pages (title, slug, parent_id, is_homepage, status, blocks,
		                   meta_description, sort_order, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+pageColumns,
		p.Title, p.Slug, p.ParentID, p.IsHomepage, p.Status, blocks,
		p.MetaDescription, p.SortOrder, p.AuthorID,
	)
	result, err := scanPage(row)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return result, nil
}

// Update modifies an existing page. Slug-only rewrites during a cascade go
// through SetSlug instead.
func (s *PageStore) Update(p *models.Page) error {
	blocks := p.Blocks
	if len(blocks) == 0 {
		blocks = []byte(`[]`)
	}

	_, err := s.db.Exec(`
		UPDATE pages SET
			title = $1, slug = $2, parent_id = $3, is_homepage = $4,
			status = $5, blocks = $6, meta_description = $7, sort_order = $8,
			updated_at = NOW()
		WHERE id = $9
	`, p.Title, p.Slug, p.ParentID, p.IsHomepage, p.Status, blocks,
		p.MetaDescription, p.SortOrder, p.ID)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return nil
}

// SetSlug persists a new slug for a page and bumps its updated timestamp.
// This is the single write primitive the cascade updater uses.
func (s *PageStore) SetSlug(id uuid.UUID, slug string) error {
	_, err := s.db.Exec(`
		UPDATE pages SET slug = $1, updated_at = NOW() WHERE id = $2
	`, slug, id)
	if err != nil {
		return fmt.Errorf("set page slug: %w", err)
	}
	return nil
}

// SetHomepage flags the given page as the homepage and clears the flag
// everywhere else, in one transaction.
func (s *PageStore) SetHomepage(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin homepage tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE pages SET is_homepage = FALSE WHERE is_homepage`); err != nil {
		return fmt.Errorf("clear homepage flag: %w", err)
	}
	if _, err := tx.Exec(`UPDATE pages SET is_homepage = TRUE, updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("set homepage flag: %w", err)
	}

	return tx.Commit()
}

// Trash soft-deletes a page. The handler trashes a page together with its
// descendants so no child is left pointing at a trashed parent.
func (s *PageStore) Trash(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE pages SET trashed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND trashed_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("trash page: %w", err)
	}
	return nil
}

// Restore brings a page back from the trash.
func (s *PageStore) Restore(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE pages SET trashed_at = NULL, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("restore page: %w", err)
	}
	return nil
}

// Purge permanently deletes a page. Children are re-parented to root
// (ON DELETE SET NULL).
func (s *PageStore) Purge(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purge page: %w", err)
	}
	return nil
}
