// Package planner holds the goal-plan domain: plans, their ordered
// task roadmaps, the roadmap generator, and the sequential
// task-completion state machine.
package planner

import "time"

// PlanState is the lifecycle state of a plan. Transitions are one-way:
// generating -> active -> completed.
type PlanState string

const (
	PlanGenerating PlanState = "generating"
	PlanActive     PlanState = "active"
	PlanCompleted  PlanState = "completed"
)

// TaskStatus is the status of a single roadmap task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskDeleted   TaskStatus = "deleted"
)

// ActionType identifies an audit log entry.
type ActionType string

const (
	ActionTaskCompleted        ActionType = "TASK_COMPLETED"
	ActionCalendarEventCreated ActionType = "GOOGLE_CALENDAR_EVENT_CREATED"
)

// Plan is a user's goal plus its generated roadmap lifecycle.
type Plan struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"ownerId"`
	Goal           string     `json:"goal"`
	DurationMonths int        `json:"durationMonths"`
	CurrentStatus  string     `json:"currentStatus"`
	State          PlanState  `json:"state"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Task is one ordered step of a plan's roadmap. OrderIndex defines the
// total order within the plan; gaps left by deletion are tolerated and
// never renumbered.
type Task struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"planId"`
	OrderIndex  int        `json:"orderIndex"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// TaskSeed is a task as emitted by the roadmap generator, before it is
// materialized as a stored Task.
type TaskSeed struct {
	OrderIndex  int    `json:"orderIndex"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Action is an immutable audit record of a committed state transition.
type Action struct {
	ID                string         `json:"id"`
	PlanID            string         `json:"planId"`
	Type              ActionType     `json:"type"`
	Payload           map[string]any `json:"payload"`
	CreatedAt         time.Time      `json:"createdAt"`
	TriggeredByChatID string         `json:"triggeredByChatId,omitempty"`
}

// ChatMessage is one turn of a plan's conversation.
type ChatMessage struct {
	ID        int       `json:"id"`
	PlanID    string    `json:"planId"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the persistence contract the generator and sequencer depend
// on. Implementations must make ActivateWithRoadmap and
// CommitCompletion atomic: the precondition re-checks and the writes
// happen in one transaction, so concurrent callers serialize and only
// one observes the pre-transition state.
type Store interface {
	GetPlan(ownerID, planID string) (*Plan, error)
	ListTasks(ownerID, planID string) ([]Task, error)
	TaskCount(ownerID, planID string) (int, error)

	// ActivateWithRoadmap writes one pending Task per seed and flips
	// the plan from generating to active in the same commit. It fails
	// with apperr.FailedPrecondition if the plan is no longer in the
	// generating state or already has tasks.
	ActivateWithRoadmap(ownerID, planID string, seeds []TaskSeed) error

	// CommitCompletion marks taskID completed, appends a
	// TASK_COMPLETED action, and flips the plan to completed when the
	// last remaining task completes, all in one commit. It re-verifies
	// inside the transaction that taskID is still the active task and
	// fails with apperr.FailedPrecondition otherwise. Returns whether
	// the plan is now complete.
	CommitCompletion(ownerID, planID, taskID, triggeredByChatID string) (planCompleted bool, err error)
}
