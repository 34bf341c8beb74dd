// Package handlers wires the HTTP surface: plan management, roadmap
// generation, task completion, chat, and the Google Calendar bridge.
package handlers

import (
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"waypoint/apperr"
	"waypoint/chat"
	"waypoint/config"
	"waypoint/db"
	"waypoint/gcal"
	"waypoint/planner"
)

// API holds the explicitly constructed dependencies of every handler.
// Nothing here is initialized by import side effects; main builds one
// API and registers its routes.
type API struct {
	Cfg        *config.Config
	DB         *db.DB
	Generator  *planner.Generator
	Sequencer  *planner.Sequencer
	Classifier *chat.Classifier
	Calendar   *gcal.Client
	OAuth      *gcal.OAuth
}

// New creates the handler set.
func New(cfg *config.Config, database *db.DB, generator *planner.Generator,
	sequencer *planner.Sequencer, classifier *chat.Classifier,
	calendar *gcal.Client, oauth *gcal.OAuth) *API {

	return &API{
		Cfg:        cfg,
		DB:         database,
		Generator:  generator,
		Sequencer:  sequencer,
		Classifier: classifier,
		Calendar:   calendar,
		OAuth:      oauth,
	}
}

// SetupRoutes configures all HTTP routes for the server
func (a *API) SetupRoutes(s *rweb.Server) {
	// Root endpoint - serves the dashboard
	s.Get("/", a.dashboardHandler)

	// Plan endpoints
	s.Post("/api/plan", a.createPlanHandler)
	s.Get("/api/plan", a.listPlansHandler)
	s.Get("/api/plan/:id", a.getPlanHandler)
	s.Post("/api/plan/:id/roadmap", a.generateRoadmapHandler)
	s.Post("/api/plan/:id/task/:taskId/complete", a.completeTaskHandler)
	s.Get("/api/plan/:id/actions", a.listActionsHandler)

	// Chat endpoints
	s.Post("/api/plan/:id/chat", a.chatHandler)
	s.Get("/api/plan/:id/chat", a.chatHistoryHandler)

	// Calendar endpoints
	s.Post("/api/plan/:id/calendar/event", a.createCalendarEventHandler)
	s.Get("/api/calendar/events", a.listCalendarEventsHandler)

	// Google OAuth connect flow
	s.Get("/auth/google/start", a.googleStartHandler)
	s.Get("/auth/google/callback", a.googleCallbackHandler)

	// App info
	s.Get("/api/app", a.appInfoHandler)
}

// appInfoHandler returns application information
func (a *API) appInfoHandler(c rweb.Context) error {
	return c.WriteJSON(map[string]interface{}{
		"version":  "0.1.0",
		"status":   "ok",
		"model":    a.Cfg.Model,
		"calendar": a.Cfg.CalendarConfigured(),
	})
}

// writeErr renders a taxonomy error as JSON with the mapped HTTP
// status, keeping the specific reason string visible to the UI.
func writeErr(c rweb.Context, err error) error {
	if apperr.CodeOf(err) == apperr.Internal {
		logger.LogErr(err, "request failed")
	}
	c.Response().SetStatus(apperr.HTTPStatus(err))
	return c.WriteJSON(map[string]string{
		"code":  string(apperr.CodeOf(err)),
		"error": apperr.ReasonOf(err),
	})
}
