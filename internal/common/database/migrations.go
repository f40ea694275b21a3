// internal/common/database/migrations.go
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema holds the DDL applied by the migrate command, in order.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	phone_number TEXT,
	total_spent NUMERIC(12,2) NOT NULL DEFAULT 0,
	role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	total_spent NUMERIC(12,2) NOT NULL DEFAULT 0,
	is_new BOOLEAN NOT NULL DEFAULT TRUE,
	wallet_balance NUMERIC(12,2) NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_total_spent ON customers (total_spent)`,
}

// Migrate applies Schema inside a single transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}

	for i, stmt := range Schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
