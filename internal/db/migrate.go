package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the embedded DDL applied by Migrate
func Schema() string {
	return schemaSQL
}

// Migrate applies the embedded schema. Safe to run repeatedly.
func (db *DB) Migrate(ctx context.Context) error {
	// No arguments, so pgx sends this over the simple protocol and multiple statements are allowed
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
