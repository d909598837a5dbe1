package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin user and a published homepage, so a fresh checkout serves
// something immediately. No-op when users already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, "admin@instipress.local", string(hash), "Admin", "admin").Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO pages (title, slug, is_homepage, status, author_id)
		VALUES ($1, $2, TRUE, 'published', $3)
	`, "Welcome", "welcome", adminID)
	if err != nil {
		return fmt.Errorf("seed insert homepage: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@instipress.local",
		"password", "admin",
	)

	return nil
}
