package planner

import (
	"github.com/rohanthewiz/logger"
	"waypoint/apperr"
)

// Sequencer enforces strict in-order task completion. At most one task
// per plan is active at a time; completion requests for any other task
// are rejected.
type Sequencer struct {
	Store Store
}

// NewSequencer creates a task sequencer.
func NewSequencer(store Store) *Sequencer {
	return &Sequencer{Store: store}
}

// CompleteTask marks the plan's active task completed, if and only if
// taskID names that task. The final read-check-write runs inside the
// store's transaction, so two concurrent requests for the same task
// yield exactly one success and one FailedPrecondition. Returns whether
// this completion finished the plan.
func (s *Sequencer) CompleteTask(ownerID, planID, taskID, triggeredByChatID string) (planCompleted bool, err error) {
	if ownerID == "" {
		return false, apperr.New(apperr.Unauthenticated, "login required")
	}
	if planID == "" || taskID == "" {
		return false, apperr.New(apperr.InvalidArgument, "missing fields")
	}

	plan, err := s.Store.GetPlan(ownerID, planID)
	if err != nil {
		return false, err
	}
	if plan.State == PlanCompleted {
		return false, apperr.New(apperr.FailedPrecondition, "plan already completed")
	}

	tasks, err := s.Store.ListTasks(ownerID, planID)
	if err != nil {
		return false, err
	}
	if len(tasks) == 0 {
		return false, apperr.New(apperr.FailedPrecondition, "no tasks found")
	}

	active := ActiveTask(tasks)
	if active == nil {
		return false, apperr.New(apperr.FailedPrecondition, "no active task")
	}
	if active.ID != taskID {
		return false, apperr.New(apperr.FailedPrecondition, "cannot complete task out of order")
	}

	// The store re-verifies the active task inside its transaction;
	// the checks above only produce early, specific failures.
	planCompleted, err = s.Store.CommitCompletion(ownerID, planID, taskID, triggeredByChatID)
	if err != nil {
		return false, err
	}

	logger.Info("Task completed",
		"plan_id", planID, "task_id", taskID, "plan_completed", planCompleted)
	return planCompleted, nil
}
