package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/serr"
	"waypoint/apperr"
	"waypoint/planner"
)

// transactionRetry runs fn in a transaction, retrying once when it
// fails for anything other than a taxonomy error. DuckDB uses
// optimistic concurrency: two overlapping writers both pass their
// snapshot re-checks and the loser aborts with a write conflict. The
// rerun observes the winner's commit, so the re-check inside fn
// produces the proper FailedPrecondition instead of a raw conflict.
func (db *DB) transactionRetry(fn func(*sql.Tx) error) error {
	err := db.Transaction(fn)
	if err == nil {
		return nil
	}
	var coded *apperr.Error
	if errors.As(err, &coded) {
		return err
	}
	return db.Transaction(fn)
}

// ListTasks retrieves the non-deleted tasks of a plan ordered by
// order_index. Fails NotFound when the plan does not belong to ownerID.
func (db *DB) ListTasks(ownerID, planID string) ([]planner.Task, error) {
	if _, err := db.GetPlan(ownerID, planID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, plan_id, order_index, title, description, status, created_at, completed_at
		FROM tasks
		WHERE plan_id = ? AND status != 'deleted'
		ORDER BY order_index
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// TaskCount counts all tasks of a plan, deleted included. Used as the
// idempotency guard for roadmap generation.
func (db *DB) TaskCount(ownerID, planID string) (int, error) {
	if _, err := db.GetPlan(ownerID, planID); err != nil {
		return 0, err
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM tasks WHERE plan_id = ?", planID).Scan(&count)
	if err != nil {
		return 0, serr.Wrap(err, "failed to count tasks")
	}
	return count, nil
}

// ActivateWithRoadmap writes the generated tasks and flips the plan
// from generating to active in one transaction. The preconditions are
// re-checked inside the transaction, so a crashed or duplicated
// invocation can never leave a generating plan with tasks or an active
// plan with none.
func (db *DB) ActivateWithRoadmap(ownerID, planID string, seeds []planner.TaskSeed) error {
	if len(seeds) == 0 {
		return apperr.New(apperr.InvalidArgument, "empty roadmap")
	}

	return db.transactionRetry(func(tx *sql.Tx) error {
		var state string
		err := tx.QueryRow(
			"SELECT state FROM plans WHERE id = ? AND owner_id = ?",
			planID, ownerID,
		).Scan(&state)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperr.New(apperr.NotFound, "plan not found")
			}
			return serr.Wrap(err, "failed to load plan state")
		}
		if state != string(planner.PlanGenerating) {
			return apperr.New(apperr.FailedPrecondition, "roadmap already generated")
		}

		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM tasks WHERE plan_id = ?", planID).Scan(&count); err != nil {
			return serr.Wrap(err, "failed to count tasks")
		}
		if count > 0 {
			return apperr.New(apperr.FailedPrecondition, "tasks already exist")
		}

		now := time.Now().UTC()
		for _, seed := range seeds {
			_, err := tx.Exec(`
				INSERT INTO tasks (id, plan_id, order_index, title, description, status, created_at, completed_at)
				VALUES (?, ?, ?, ?, ?, 'pending', ?, NULL)
			`, uuid.New().String(), planID, seed.OrderIndex, seed.Title, seed.Description, now)
			if err != nil {
				return serr.Wrap(err, "failed to insert task")
			}
		}

		_, err = tx.Exec("UPDATE plans SET state = 'active' WHERE id = ?", planID)
		if err != nil {
			return serr.Wrap(err, "failed to activate plan")
		}

		return nil
	})
}

// CommitCompletion atomically completes the active task of a plan. The
// active task is recomputed from current state inside the transaction:
// of two racing requests for the same task, the second one finds the
// task no longer pending and fails with FailedPrecondition. The
// TASK_COMPLETED action and, when this was the last task, the plan's
// completed state are written in the same commit.
func (db *DB) CommitCompletion(ownerID, planID, taskID, triggeredByChatID string) (planCompleted bool, err error) {
	err = db.transactionRetry(func(tx *sql.Tx) error {
		planCompleted = false

		var state string
		err := tx.QueryRow(
			"SELECT state FROM plans WHERE id = ? AND owner_id = ?",
			planID, ownerID,
		).Scan(&state)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperr.New(apperr.NotFound, "plan not found")
			}
			return serr.Wrap(err, "failed to load plan state")
		}
		if state == string(planner.PlanCompleted) {
			return apperr.New(apperr.FailedPrecondition, "plan already completed")
		}

		rows, err := tx.Query(`
			SELECT id, plan_id, order_index, title, description, status, created_at, completed_at
			FROM tasks
			WHERE plan_id = ? AND status != 'deleted'
			ORDER BY order_index
		`, planID)
		if err != nil {
			return serr.Wrap(err, "failed to query tasks")
		}
		tasks, err := scanTasks(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return apperr.New(apperr.FailedPrecondition, "no tasks found")
		}

		active := planner.ActiveTask(tasks)
		if active == nil {
			return apperr.New(apperr.FailedPrecondition, "no active task")
		}
		if active.ID != taskID {
			return apperr.New(apperr.FailedPrecondition, "cannot complete task out of order")
		}

		now := time.Now().UTC()
		_, err = tx.Exec(
			"UPDATE tasks SET status = 'completed', completed_at = ? WHERE id = ?",
			now, taskID,
		)
		if err != nil {
			return serr.Wrap(err, "failed to complete task")
		}

		payload, err := json.Marshal(map[string]any{"taskId": taskID})
		if err != nil {
			return serr.Wrap(err, "failed to marshal action payload")
		}
		_, err = tx.Exec(`
			INSERT INTO actions (id, plan_id, type, payload, created_at, triggered_by_chat_id)
			VALUES (?, ?, ?, ?, ?, NULLIF(?, ''))
		`, uuid.New().String(), planID, string(planner.ActionTaskCompleted), string(payload), now, triggeredByChatID)
		if err != nil {
			return serr.Wrap(err, "failed to append action")
		}

		completed, total := planner.Progress(tasks)
		completed++ // includes this transition
		if completed == total {
			_, err = tx.Exec(
				"UPDATE plans SET state = 'completed', completed_at = ? WHERE id = ?",
				now, planID,
			)
			if err != nil {
				return serr.Wrap(err, "failed to complete plan")
			}
			planCompleted = true
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return planCompleted, nil
}

func scanTasks(rows *sql.Rows) ([]planner.Task, error) {
	var tasks []planner.Task
	for rows.Next() {
		var t planner.Task
		var status string
		var completedAt sql.NullTime

		err := rows.Scan(&t.ID, &t.PlanID, &t.OrderIndex, &t.Title, &t.Description,
			&status, &t.CreatedAt, &completedAt)
		if err != nil {
			return nil, serr.Wrap(err, "failed to scan task")
		}

		t.Status = planner.TaskStatus(status)
		if completedAt.Valid {
			t.CompletedAt = &completedAt.Time
		}

		tasks = append(tasks, t)
	}
	return tasks, nil
}
