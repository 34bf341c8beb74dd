package handlers

import (
	"context"
	"encoding/json"

	"github.com/rohanthewiz/rweb"
	"waypoint/apperr"
	"waypoint/gcal"
	"waypoint/planner"
)

// CreateCalendarEventRequest is the body of
// POST /api/plan/:id/calendar/event. It is sent only after the user
// explicitly confirmed a PROPOSE_CREATE_CALENDAR_EVENT reply;
// confirmation is never implied by the classifier's output.
type CreateCalendarEventRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	StartISO          string `json:"startISO"`
	EndISO            string `json:"endISO"`
	TriggeredByChatID string `json:"triggeredByChatId"`
}

func (a *API) createCalendarEventHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}
	planID := c.Request().Param("id")

	var req CreateCalendarEventRequest
	if err := json.Unmarshal(c.Request().Body(), &req); err != nil {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "invalid request body"))
	}
	if req.Title == "" || req.StartISO == "" || req.EndISO == "" {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "missing fields"))
	}

	if _, err := a.DB.GetPlan(uid, planID); err != nil {
		return writeErr(c, err)
	}

	integration, err := a.DB.GetGoogleIntegration(uid)
	if err != nil {
		return writeErr(c, err)
	}

	eventID, err := a.Calendar.CreateEvent(context.Background(), a.OAuth.Token(integration),
		gcal.CreateEventRequest{
			Title:       req.Title,
			Description: req.Description,
			StartISO:    req.StartISO,
			EndISO:      req.EndISO,
		})
	if err != nil {
		return writeErr(c, err)
	}

	// Same audit discipline as task completion
	_, err = a.DB.AppendAction(uid, planID, planner.ActionCalendarEventCreated, map[string]any{
		"title":         req.Title,
		"startISO":      req.StartISO,
		"endISO":        req.EndISO,
		"googleEventId": eventID,
	}, req.TriggeredByChatID)
	if err != nil {
		return writeErr(c, err)
	}

	return c.WriteJSON(map[string]any{
		"success": true,
		"eventId": eventID,
	})
}

func (a *API) listCalendarEventsHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}

	integration, err := a.DB.GetGoogleIntegration(uid)
	if err != nil {
		if apperr.Is(err, apperr.NotConnected) {
			return c.WriteJSON(map[string]any{"events": []gcal.Event{}})
		}
		return writeErr(c, err)
	}

	events, err := a.Calendar.ListUpcomingEvents(context.Background(), a.OAuth.Token(integration))
	if err != nil {
		return writeErr(c, err)
	}

	return c.WriteJSON(map[string]any{"events": events})
}
