package main

import (
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"waypoint/chat"
	"waypoint/config"
	"waypoint/db"
	"waypoint/gcal"
	"waypoint/handlers"
	"waypoint/planner"
	"waypoint/platform/shutdown"
	"waypoint/providers"
)

func main() {
	config.Initialize()
	cfg := config.Get()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.LogErr(err, "failed to open database")
		return
	}

	ai := providers.NewAnthropicClient(cfg)
	oauth := gcal.NewOAuth(cfg)

	api := handlers.New(
		cfg,
		database,
		planner.NewGenerator(ai, database, cfg.Model, cfg.MaxTokens),
		planner.NewSequencer(database),
		chat.NewClassifier(ai, cfg.Model, cfg.MaxTokens, cfg.Timezone),
		gcal.NewClient(cfg, oauth),
		oauth,
	)

	s := rweb.NewServer(rweb.ServerOptions{
		Address: cfg.ListenAddr,
		Verbose: true,
	})
	s.Use(rweb.RequestInfo)
	api.SetupRoutes(s)

	done := make(chan struct{})
	shutdown.InitShutdownService(done)
	shutdown.RegisterHook(func(_ time.Duration) error {
		return database.Close()
	})

	go func() {
		logger.Info("Starting Waypoint server", "addr", cfg.ListenAddr)
		if err := s.Run(); err != nil {
			logger.LogErr(err, "server stopped")
		}
	}()

	<-done
	logger.Info("Waypoint shut down")
}
