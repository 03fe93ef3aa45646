package postgres

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS %[1]s (
    prefix     TEXT        NOT NULL,
    namespace  TEXT        NOT NULL,
    key        TEXT        NOT NULL,
    value      BYTEA       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (prefix, namespace, key)
);
`

// CreateSchema creates the state table if it does not exist.
func (a *Adapter) CreateSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, fmt.Sprintf(schemaSQL, a.table)); err != nil {
		return fmt.Errorf("postgres: create schema: %w", err)
	}
	return nil
}

// DropSchema drops the state table.
func (a *Adapter) DropSchema(ctx context.Context) error {
	_, err := a.db.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, a.table))
	return err
}
