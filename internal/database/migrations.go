package database

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order at startup. Statements must stay
// idempotent; there is no down path.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		username    TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		avatar_url  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS groups (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		description   TEXT,
		invite_token  TEXT NOT NULL UNIQUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS group_members (
		id         TEXT PRIMARY KEY,
		group_id   TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status     TEXT NOT NULL,
		role       TEXT NOT NULL,
		joined_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (group_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS expenses (
		id           TEXT PRIMARY KEY,
		group_id     TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		payer_id     TEXT NOT NULL REFERENCES users(id),
		description  TEXT NOT NULL,
		amount       DOUBLE PRECISION NOT NULL,
		image_url    TEXT,
		split_type   TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS splits (
		id              TEXT PRIMARY KEY,
		expense_id      TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
		member_id       TEXT NOT NULL REFERENCES users(id),
		amount_owed     DOUBLE PRECISION NOT NULL,
		status          TEXT NOT NULL DEFAULT 'PENDING',
		dispute_reason  TEXT,
		settlement_id   TEXT,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS settlements (
		id           TEXT PRIMARY KEY,
		group_id     TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		payer_id     TEXT NOT NULL REFERENCES users(id),
		receiver_id  TEXT NOT NULL REFERENCES users(id),
		amount       DOUBLE PRECISION NOT NULL,
		status       TEXT NOT NULL DEFAULT 'PENDING',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id                   TEXT PRIMARY KEY,
		recipient_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message              TEXT NOT NULL,
		is_read              BOOLEAN NOT NULL DEFAULT FALSE,
		related_entity_type  TEXT,
		related_entity_id    TEXT,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_group_members_group ON group_members (group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_group ON expenses (group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_splits_expense ON splits (expense_id)`,
	`CREATE INDEX IF NOT EXISTS idx_splits_member ON splits (member_id)`,
	`CREATE INDEX IF NOT EXISTS idx_splits_settlement ON splits (settlement_id)`,
	`CREATE INDEX IF NOT EXISTS idx_settlements_group ON settlements (group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id)`,
}

func runMigrations(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
