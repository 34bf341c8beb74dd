package planner

import "sort"

// ActiveTask returns the active task of a plan: the lowest-orderIndex
// task that is still pending among non-deleted tasks, or nil when no
// such task exists. This is the single definition of "current task"
// used by the sequencer, the chat classifier, and the UI badges.
func ActiveTask(tasks []Task) *Task {
	var active *Task
	for i := range tasks {
		t := &tasks[i]
		if t.Status != TaskPending {
			continue
		}
		if active == nil || t.OrderIndex < active.OrderIndex {
			active = t
		}
	}
	return active
}

// Progress counts completed and total non-deleted tasks.
func Progress(tasks []Task) (completed, total int) {
	for _, t := range tasks {
		if t.Status == TaskDeleted {
			continue
		}
		total++
		if t.Status == TaskCompleted {
			completed++
		}
	}
	return completed, total
}

// SortByOrder sorts tasks by orderIndex ascending, in place.
func SortByOrder(tasks []Task) {
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].OrderIndex < tasks[j].OrderIndex
	})
}

// TaskBadge is the derived display state of a task within its plan.
type TaskBadge string

const (
	BadgeCompleted TaskBadge = "completed"
	BadgeActive    TaskBadge = "active"
	BadgeLocked    TaskBadge = "locked"
)

// Badge derives the display badge for a task given the plan's active
// task (may be nil).
func Badge(t Task, active *Task) TaskBadge {
	switch {
	case t.Status == TaskCompleted:
		return BadgeCompleted
	case active != nil && t.ID == active.ID:
		return BadgeActive
	default:
		return BadgeLocked
	}
}
