package db

import (
	"database/sql"
	"fmt"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations list all database migrations in order
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create initial schema",
		SQL: `
			-- Plans: one row per user goal
			CREATE TABLE IF NOT EXISTS plans (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				goal TEXT NOT NULL,
				duration_months INTEGER NOT NULL,
				current_status TEXT NOT NULL DEFAULT '',
				state TEXT NOT NULL DEFAULT 'generating'
					CHECK (state IN ('generating', 'active', 'completed')),
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				completed_at TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_plans_owner ON plans(owner_id);

			-- Tasks: the ordered roadmap of a plan
			CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				plan_id TEXT NOT NULL,
				order_index INTEGER NOT NULL,
				title TEXT NOT NULL,
				description TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending'
					CHECK (status IN ('pending', 'completed', 'deleted')),
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				completed_at TIMESTAMP,
				FOREIGN KEY (plan_id) REFERENCES plans(id)
			);
			CREATE INDEX IF NOT EXISTS idx_tasks_plan ON tasks(plan_id);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_plan_order ON tasks(plan_id, order_index);

			-- Actions: append-only audit log of committed transitions
			CREATE TABLE IF NOT EXISTS actions (
				id TEXT PRIMARY KEY,
				plan_id TEXT NOT NULL,
				type TEXT NOT NULL,
				payload JSON NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				triggered_by_chat_id TEXT,
				FOREIGN KEY (plan_id) REFERENCES plans(id)
			);
			CREATE INDEX IF NOT EXISTS idx_actions_plan ON actions(plan_id);

			-- Chat messages, per plan
			CREATE SEQUENCE IF NOT EXISTS chat_messages_id_seq;
			CREATE TABLE IF NOT EXISTS chat_messages (
				id INTEGER PRIMARY KEY DEFAULT nextval('chat_messages_id_seq'),
				plan_id TEXT NOT NULL,
				role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
				content TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (plan_id) REFERENCES plans(id)
			);
			CREATE INDEX IF NOT EXISTS idx_chat_messages_plan ON chat_messages(plan_id);

			-- Third-party integration tokens, per user
			CREATE TABLE IF NOT EXISTS integrations (
				owner_id TEXT NOT NULL,
				provider TEXT NOT NULL,
				access_token TEXT NOT NULL,
				refresh_token TEXT NOT NULL,
				expiry TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (owner_id, provider)
			);

			-- Migrations bookkeeping
			CREATE TABLE IF NOT EXISTS migrations (
				version INTEGER PRIMARY KEY,
				description TEXT NOT NULL,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
}

// Migrate runs all pending database migrations
func (db *DB) Migrate() error {
	// First, ensure migrations table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return serr.Wrap(err, "failed to create migrations table")
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return serr.Wrap(err, "failed to get current migration version")
	}

	// Apply pending migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		logger.Info("Applying migration", "version", migration.Version, "description", migration.Description)

		err := db.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(migration.SQL); err != nil {
				return serr.Wrap(err, fmt.Sprintf("failed to execute migration %d", migration.Version))
			}

			_, err := tx.Exec(
				"INSERT INTO migrations (version, description) VALUES (?, ?)",
				migration.Version, migration.Description,
			)
			if err != nil {
				return serr.Wrap(err, "failed to record migration")
			}

			return nil
		})

		if err != nil {
			return err
		}
	}

	return nil
}
