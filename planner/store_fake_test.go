package planner

import (
	"fmt"
	"sync"
	"time"

	"waypoint/apperr"
)

// fakeStore is an in-memory Store whose commits serialize on a mutex,
// mirroring the transactional guarantees the real store provides.
type fakeStore struct {
	mu      sync.Mutex
	plans   map[string]*Plan
	tasks   map[string][]Task // keyed by plan id
	actions []Action
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans: make(map[string]*Plan),
		tasks: make(map[string][]Task),
	}
}

func (s *fakeStore) addPlan(p *Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.plans[p.ID] = &cp
}

func (s *fakeStore) addTasks(planID string, tasks ...Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[planID] = append(s.tasks[planID], tasks...)
}

func (s *fakeStore) findPlan(ownerID, planID string) (*Plan, error) {
	p, ok := s.plans[planID]
	if !ok || p.OwnerID != ownerID {
		return nil, apperr.New(apperr.NotFound, "plan not found")
	}
	return p, nil
}

func (s *fakeStore) GetPlan(ownerID, planID string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.findPlan(ownerID, planID)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) ListTasks(ownerID, planID string) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.findPlan(ownerID, planID); err != nil {
		return nil, err
	}
	var out []Task
	for _, t := range s.tasks[planID] {
		if t.Status != TaskDeleted {
			out = append(out, t)
		}
	}
	SortByOrder(out)
	return out, nil
}

func (s *fakeStore) TaskCount(ownerID, planID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.findPlan(ownerID, planID); err != nil {
		return 0, err
	}
	return len(s.tasks[planID]), nil
}

func (s *fakeStore) ActivateWithRoadmap(ownerID, planID string, seeds []TaskSeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.findPlan(ownerID, planID)
	if err != nil {
		return err
	}
	if p.State != PlanGenerating {
		return apperr.New(apperr.FailedPrecondition, "roadmap already generated")
	}
	if len(s.tasks[planID]) > 0 {
		return apperr.New(apperr.FailedPrecondition, "tasks already exist")
	}

	now := time.Now().UTC()
	for i, seed := range seeds {
		s.tasks[planID] = append(s.tasks[planID], Task{
			ID:          fmt.Sprintf("task-%d", i+1),
			PlanID:      planID,
			OrderIndex:  seed.OrderIndex,
			Title:       seed.Title,
			Description: seed.Description,
			Status:      TaskPending,
			CreatedAt:   now,
		})
	}
	p.State = PlanActive
	return nil
}

func (s *fakeStore) CommitCompletion(ownerID, planID, taskID, triggeredByChatID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.findPlan(ownerID, planID)
	if err != nil {
		return false, err
	}
	if p.State == PlanCompleted {
		return false, apperr.New(apperr.FailedPrecondition, "plan already completed")
	}

	var live []Task
	for _, t := range s.tasks[planID] {
		if t.Status != TaskDeleted {
			live = append(live, t)
		}
	}
	SortByOrder(live)

	active := ActiveTask(live)
	if active == nil {
		return false, apperr.New(apperr.FailedPrecondition, "no active task")
	}
	if active.ID != taskID {
		return false, apperr.New(apperr.FailedPrecondition, "cannot complete task out of order")
	}

	now := time.Now().UTC()
	for i := range s.tasks[planID] {
		if s.tasks[planID][i].ID == taskID {
			s.tasks[planID][i].Status = TaskCompleted
			s.tasks[planID][i].CompletedAt = &now
		}
	}

	s.actions = append(s.actions, Action{
		ID:                fmt.Sprintf("action-%d", len(s.actions)+1),
		PlanID:            planID,
		Type:              ActionTaskCompleted,
		Payload:           map[string]any{"taskId": taskID},
		CreatedAt:         now,
		TriggeredByChatID: triggeredByChatID,
	})

	completed, total := Progress(live)
	completed++
	if completed == total {
		p.State = PlanCompleted
		p.CompletedAt = &now
		return true, nil
	}
	return false, nil
}

func (s *fakeStore) actionCount(planID string, actionType ActionType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.actions {
		if a.PlanID == planID && a.Type == actionType {
			n++
		}
	}
	return n
}
