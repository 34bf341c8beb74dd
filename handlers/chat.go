package handlers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"waypoint/apperr"
	"waypoint/chat"
	"waypoint/planner"
)

// historyWindow is how many recent messages are given to the
// classifier as conversation context.
const historyWindow = 10

// ChatRequest is the body of POST /api/plan/:id/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// chatHandler runs one exchange: persist the user message, classify
// it against the plan's active task, persist the reply, and trim the
// retained history. The classifier itself never mutates state, so the
// slow AI call holds no lock on the plan.
func (a *API) chatHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}
	planID := c.Request().Param("id")

	var req ChatRequest
	if err := json.Unmarshal(c.Request().Body(), &req); err != nil {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "invalid request body"))
	}
	if strings.TrimSpace(req.Message) == "" {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "missing message"))
	}

	plan, err := a.DB.GetPlan(uid, planID)
	if err != nil {
		return writeErr(c, err)
	}

	tasks, err := a.DB.ListTasks(uid, planID)
	if err != nil {
		return writeErr(c, err)
	}
	active := planner.ActiveTask(tasks)

	// History is captured before this exchange's messages are written
	recent, err := a.DB.RecentChatMessages(planID, historyWindow)
	if err != nil {
		return writeErr(c, err)
	}
	history := make([]chat.Turn, 0, len(recent))
	for _, m := range recent {
		history = append(history, chat.Turn{Role: m.Role, Text: m.Content})
	}

	userChatID, err := a.DB.AddChatMessage(planID, "user", req.Message)
	if err != nil {
		return writeErr(c, err)
	}

	calendarEnabled := false
	if a.Cfg.CalendarConfigured() {
		if _, err := a.DB.GetGoogleIntegration(uid); err == nil {
			calendarEnabled = true
		}
	}

	reply, err := a.Classifier.Classify(context.Background(), chat.ClassifyRequest{
		Message:         req.Message,
		History:         history,
		PlanState:       plan.State,
		ActiveTask:      active,
		CalendarEnabled: calendarEnabled,
	})
	if err != nil {
		return writeErr(c, err)
	}

	assistantChatID, err := a.DB.AddChatMessage(planID, "assistant", reply.Message)
	if err != nil {
		return writeErr(c, err)
	}

	if err := a.DB.TrimChatHistory(planID); err != nil {
		logger.LogErr(err, "failed to trim chat history", "plan_id", planID)
	}

	return c.WriteJSON(map[string]any{
		"reply":           reply,
		"userChatId":      userChatID,
		"assistantChatId": assistantChatID,
	})
}

func (a *API) chatHistoryHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}
	planID := c.Request().Param("id")

	messages, err := a.DB.ListChatMessages(uid, planID)
	if err != nil {
		return writeErr(c, err)
	}
	if messages == nil {
		messages = []planner.ChatMessage{}
	}

	return c.WriteJSON(messages)
}
