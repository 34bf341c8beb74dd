package handlers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"waypoint/apperr"
	"waypoint/planner"
)

// CreatePlanRequest is the body of POST /api/plan.
type CreatePlanRequest struct {
	Goal           string `json:"goal"`
	DurationMonths int    `json:"durationMonths"`
	CurrentStatus  string `json:"currentStatus"`
}

func (a *API) createPlanHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}

	var req CreatePlanRequest
	if err := json.Unmarshal(c.Request().Body(), &req); err != nil {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "invalid request body"))
	}
	if strings.TrimSpace(req.Goal) == "" || req.DurationMonths <= 0 {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "missing or invalid fields"))
	}

	plan, err := a.DB.CreatePlan(uid, req.Goal, req.DurationMonths, req.CurrentStatus)
	if err != nil {
		return writeErr(c, err)
	}

	logger.Info("Plan created", "plan_id", plan.ID, "owner", uid)
	return c.WriteJSON(plan)
}

func (a *API) listPlansHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}

	plans, err := a.DB.ListPlans(uid)
	if err != nil {
		return writeErr(c, err)
	}
	if plans == nil {
		plans = []*planner.Plan{}
	}

	return c.WriteJSON(plans)
}

// taskView is a task plus its derived display badge.
type taskView struct {
	planner.Task
	Badge planner.TaskBadge `json:"badge"`
}

func (a *API) getPlanHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}
	planID := c.Request().Param("id")

	plan, err := a.DB.GetPlan(uid, planID)
	if err != nil {
		return writeErr(c, err)
	}

	tasks, err := a.DB.ListTasks(uid, planID)
	if err != nil {
		return writeErr(c, err)
	}

	active := planner.ActiveTask(tasks)
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView{Task: t, Badge: planner.Badge(t, active)})
	}

	completed, total := planner.Progress(tasks)

	return c.WriteJSON(map[string]any{
		"plan":      plan,
		"tasks":     views,
		"completed": completed,
		"total":     total,
	})
}

// GenerateRoadmapRequest is the body of POST /api/plan/:id/roadmap.
// Goal, duration and status are re-sent so generation can be retried
// verbatim by the client.
type GenerateRoadmapRequest struct {
	Goal           string `json:"goal"`
	DurationMonths int    `json:"durationMonths"`
	CurrentStatus  string `json:"currentStatus"`
}

func (a *API) generateRoadmapHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}
	planID := c.Request().Param("id")

	var req GenerateRoadmapRequest
	if err := json.Unmarshal(c.Request().Body(), &req); err != nil {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "invalid request body"))
	}

	err = a.Generator.Generate(context.Background(), planner.GenerateRequest{
		OwnerID:        uid,
		PlanID:         planID,
		Goal:           req.Goal,
		DurationMonths: req.DurationMonths,
		CurrentStatus:  req.CurrentStatus,
	})
	if err != nil {
		return writeErr(c, err)
	}

	return c.WriteJSON(map[string]bool{"success": true})
}

func (a *API) listActionsHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}
	planID := c.Request().Param("id")

	actions, err := a.DB.ListActions(uid, planID)
	if err != nil {
		return writeErr(c, err)
	}
	if actions == nil {
		actions = []planner.Action{}
	}

	return c.WriteJSON(actions)
}
