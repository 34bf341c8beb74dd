package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/serr"
	"waypoint/apperr"
	"waypoint/planner"
)

// CreatePlan inserts a new plan in the generating state and returns it.
func (db *DB) CreatePlan(ownerID, goal string, durationMonths int, currentStatus string) (*planner.Plan, error) {
	plan := &planner.Plan{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		Goal:           goal,
		DurationMonths: durationMonths,
		CurrentStatus:  currentStatus,
		State:          planner.PlanGenerating,
		CreatedAt:      time.Now().UTC(),
	}

	query := `
		INSERT INTO plans (id, owner_id, goal, duration_months, current_status, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, plan.ID, plan.OwnerID, plan.Goal, plan.DurationMonths,
		plan.CurrentStatus, string(plan.State), plan.CreatedAt)
	if err != nil {
		return nil, serr.Wrap(err, "failed to create plan")
	}

	return plan, nil
}

// GetPlan retrieves a plan owned by ownerID.
func (db *DB) GetPlan(ownerID, planID string) (*planner.Plan, error) {
	row := db.QueryRow(`
		SELECT id, owner_id, goal, duration_months, current_status, state, created_at, completed_at
		FROM plans
		WHERE id = ? AND owner_id = ?
	`, planID, ownerID)

	return scanPlan(row)
}

// ListPlans retrieves all plans for a user, newest first.
func (db *DB) ListPlans(ownerID string) ([]*planner.Plan, error) {
	rows, err := db.Query(`
		SELECT id, owner_id, goal, duration_months, current_status, state, created_at, completed_at
		FROM plans
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*planner.Plan
	for rows.Next() {
		plan, err := scanPlanRows(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	return plans, nil
}

func scanPlan(row *sql.Row) (*planner.Plan, error) {
	var plan planner.Plan
	var state string
	var completedAt sql.NullTime

	err := row.Scan(&plan.ID, &plan.OwnerID, &plan.Goal, &plan.DurationMonths,
		&plan.CurrentStatus, &state, &plan.CreatedAt, &completedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "plan not found")
		}
		return nil, serr.Wrap(err, "failed to get plan")
	}

	plan.State = planner.PlanState(state)
	if completedAt.Valid {
		plan.CompletedAt = &completedAt.Time
	}

	return &plan, nil
}

func scanPlanRows(rows *sql.Rows) (*planner.Plan, error) {
	var plan planner.Plan
	var state string
	var completedAt sql.NullTime

	err := rows.Scan(&plan.ID, &plan.OwnerID, &plan.Goal, &plan.DurationMonths,
		&plan.CurrentStatus, &state, &plan.CreatedAt, &completedAt)
	if err != nil {
		return nil, serr.Wrap(err, "failed to scan plan")
	}

	plan.State = planner.PlanState(state)
	if completedAt.Valid {
		plan.CompletedAt = &completedAt.Time
	}

	return &plan, nil
}
