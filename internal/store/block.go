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

// BlockStore manages reusable page-builder block definitions.
type BlockStore struct {
	db *sql.DB
}

// NewBlockStore returns a new BlockStore.
func NewBlockStore(db *sql.DB) *BlockStore {
	return &BlockStore{db: db}
}

const blockColumns = `id, name, slug, category, description, schema, defaults,
	created_at, updated_at`

// scanBlock scans a row into a Block struct.
func scanBlock(scanner interface{ Scan(...any) error }) (*models.Block, error) {
	var b models.Block
	err := scanner.Scan(
		&b.ID, &b.Name, &b.Slug, &b.Category, &b.Description,
		&b.Schema, &b.Defaults, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns all block definitions grouped by category then name.
func (s *BlockStore) List() ([]models.Block, error) {
	rows, err := s.db.Query(`SELECT ` + blockColumns + ` FROM blocks ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

// FindByID retrieves a block by ID. Returns nil if not found.
func (s *BlockStore) FindByID(id uuid.UUID) (*models.Block, error) {
	row := s.db.QueryRow(`SELECT `+blockColumns+` FROM blocks WHERE id = $1`, id)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find block by id: %w", err)
	}
	return b, nil
}

// FindBySlug retrieves a block by its slug. Returns nil if not found.
func (s *BlockStore) FindBySlug(slug string) (*models.Block, error) {
	row := s.db.QueryRow(`SELECT `+blockColumns+` FROM blocks WHERE slug = $1`, slug)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find block by slug: %w", err)
	}
	return b, nil
}

// Create inserts a new block definition and returns it.
func (s *BlockStore) Create(b *models.Block) (*models.Block, error) {
	schema := b.Schema
	if len(schema) == 0 {
		schema = []byte(`{}`)
	}
	defaults := b.Defaults
	if len(defaults) == 0 {
		defaults = []byte(`{}`)
	}

	row := s.db.QueryRow(`
		INSERT INTO blocks (name, slug, category, description, schema, defaults)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+blockColumns,
		b.Name, b.Slug, b.Category, b.Description, schema, defaults,
	)
	result, err := scanBlock(row)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	return result, nil
}

// Update modifies an existing block definition.
func (s *BlockStore) Update(b *models.Block) error {
	schema := b.Schema
	if len(schema) == 0 {
		schema = []byte(`{}`)
	}
	defaults := b.Defaults
	if len(defaults) == 0 {
		defaults = []byte(`{}`)
	}

	_, err := s.db.Exec(`
		UPDATE blocks SET
			name = $1, slug = $2, category = $3, description = $4,
			schema = $5, defaults = $6, updated_at = NOW()
		WHERE id = $7
	`, b.Name, b.Slug, b.Category, b.Description, schema, defaults, b.ID)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	return nil
}

// Delete removes a block definition by ID.
func (s *BlockStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}
