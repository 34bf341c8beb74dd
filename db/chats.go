package db

import (
	"database/sql"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"waypoint/planner"
)

// historyCap is the retention limit per plan: after each exchange the
// oldest messages beyond this count are deleted.
const historyCap = 30

// AddChatMessage appends a message to a plan's conversation and
// returns its id. The id comes back from the insert itself; sequence
// reads like currval are session-scoped and the pool may hand each
// statement a different connection.
func (db *DB) AddChatMessage(planID, role, content string) (int, error) {
	var messageID int
	err := db.QueryRow(`
		INSERT INTO chat_messages (plan_id, role, content, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		RETURNING id
	`, planID, role, content).Scan(&messageID)
	if err != nil {
		return 0, serr.Wrap(err, "failed to add chat message")
	}

	return messageID, nil
}

// RecentChatMessages returns the last n messages of a plan, oldest
// first, ready to be used as classifier history.
func (db *DB) RecentChatMessages(planID string, n int) ([]planner.ChatMessage, error) {
	rows, err := db.Query(`
		SELECT id, plan_id, role, content, created_at
		FROM (
			SELECT id, plan_id, role, content, created_at
			FROM chat_messages
			WHERE plan_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`, planID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChatMessages(rows)
}

// ListChatMessages returns the full retained conversation of a plan,
// oldest first.
func (db *DB) ListChatMessages(ownerID, planID string) ([]planner.ChatMessage, error) {
	if _, err := db.GetPlan(ownerID, planID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, plan_id, role, content, created_at
		FROM chat_messages
		WHERE plan_id = ?
		ORDER BY id ASC
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChatMessages(rows)
}

// TrimChatHistory deletes the oldest messages of a plan beyond the
// retention cap.
func (db *DB) TrimChatHistory(planID string) error {
	_, err := db.Exec(`
		DELETE FROM chat_messages
		WHERE plan_id = ?
		  AND id NOT IN (
			SELECT id FROM chat_messages
			WHERE plan_id = ?
			ORDER BY id DESC
			LIMIT ?
		  )
	`, planID, planID, historyCap)
	if err != nil {
		return serr.Wrap(err, "failed to trim chat history")
	}

	logger.Debug("Trimmed chat history", "plan_id", planID, "cap", historyCap)
	return nil
}

func scanChatMessages(rows *sql.Rows) ([]planner.ChatMessage, error) {
	var messages []planner.ChatMessage
	for rows.Next() {
		var m planner.ChatMessage
		if err := rows.Scan(&m.ID, &m.PlanID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, serr.Wrap(err, "failed to scan chat message")
		}
		messages = append(messages, m)
	}
	return messages, nil
}
