package handlers

import (
	"encoding/json"

	"github.com/rohanthewiz/rweb"
	"waypoint/apperr"
)

// CompleteTaskRequest is the body of
// POST /api/plan/:id/task/:taskId/complete. TriggeredByChatID links
// the completion to the chat message that proposed it.
type CompleteTaskRequest struct {
	TriggeredByChatID string `json:"triggeredByChatId"`
}

func (a *API) completeTaskHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}
	planID := c.Request().Param("id")
	taskID := c.Request().Param("taskId")

	var req CompleteTaskRequest
	if body := c.Request().Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return writeErr(c, apperr.New(apperr.InvalidArgument, "invalid request body"))
		}
	}

	planCompleted, err := a.Sequencer.CompleteTask(uid, planID, taskID, req.TriggeredByChatID)
	if err != nil {
		return writeErr(c, err)
	}

	return c.WriteJSON(map[string]any{
		"success":       true,
		"planCompleted": planCompleted,
	})
}
