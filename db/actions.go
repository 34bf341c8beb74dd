package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/serr"
	"waypoint/planner"
)

// AppendAction writes an audit record for a plan. The action log is
// append-only; rows are never updated or deleted.
func (db *DB) AppendAction(ownerID, planID string, actionType planner.ActionType,
	payload map[string]any, triggeredByChatID string) (*planner.Action, error) {

	if _, err := db.GetPlan(ownerID, planID); err != nil {
		return nil, err
	}

	action := &planner.Action{
		ID:                uuid.New().String(),
		PlanID:            planID,
		Type:              actionType,
		Payload:           payload,
		CreatedAt:         time.Now().UTC(),
		TriggeredByChatID: triggeredByChatID,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, serr.Wrap(err, "failed to marshal action payload")
	}

	_, err = db.Exec(`
		INSERT INTO actions (id, plan_id, type, payload, created_at, triggered_by_chat_id)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''))
	`, action.ID, planID, string(actionType), string(payloadJSON), action.CreatedAt, triggeredByChatID)
	if err != nil {
		return nil, serr.Wrap(err, "failed to append action")
	}

	return action, nil
}

// ListActions retrieves the audit timeline of a plan, newest first.
func (db *DB) ListActions(ownerID, planID string) ([]planner.Action, error) {
	if _, err := db.GetPlan(ownerID, planID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, plan_id, type, payload::VARCHAR, created_at, triggered_by_chat_id
		FROM actions
		WHERE plan_id = ?
		ORDER BY created_at DESC
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []planner.Action
	for rows.Next() {
		var a planner.Action
		var actionType, payloadJSON string
		var chatID sql.NullString

		err := rows.Scan(&a.ID, &a.PlanID, &actionType, &payloadJSON, &a.CreatedAt, &chatID)
		if err != nil {
			return nil, serr.Wrap(err, "failed to scan action")
		}

		a.Type = planner.ActionType(actionType)
		if chatID.Valid {
			a.TriggeredByChatID = chatID.String
		}
		if err := json.Unmarshal([]byte(payloadJSON), &a.Payload); err != nil {
			return nil, serr.Wrap(err, "failed to unmarshal action payload")
		}

		actions = append(actions, a)
	}

	return actions, nil
}
