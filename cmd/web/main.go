package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/matchday/internal/clock"
	"github.com/AdamBeresnev/matchday/internal/config"
	"github.com/AdamBeresnev/matchday/internal/coordinator"
	"github.com/AdamBeresnev/matchday/internal/db"
	"github.com/AdamBeresnev/matchday/internal/live"
	"github.com/AdamBeresnev/matchday/internal/service"
	"github.com/AdamBeresnev/matchday/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger(os.Stderr))

	database, err := db.InitDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tournaments := store.NewTournamentStore(database)
	teams := store.NewTeamStore(database)
	matches := store.NewMatchStore(database)

	hub := live.NewHub(originChecker(cfg))
	go hub.Run(ctx)

	coord := coordinator.New(matches, coordinator.NewCache(), hub)
	matchService := service.NewMatchService(service.Repositories{
		Matches:       matches,
		Goals:         store.NewGoalStore(database),
		Cards:         store.NewCardStore(database),
		Substitutions: store.NewSubstitutionStore(database),
		Lineups:       store.NewLineupStore(database),
		Teams:         teams,
		Tournaments:   tournaments,
	}, coord)
	matchService.AddClockListener(hub)

	if cfg.AMQPURL != "" {
		publisher, err := live.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Error("Failed to connect to AMQP, live events stay local", "error", err)
		} else {
			defer publisher.Close()
			coord.AddNotifier(publisher)
			matchService.AddClockListener(publisher)
		}
	}

	scheduler := clock.NewScheduler(cfg.TickInterval, matchService.Revalidate)
	go scheduler.Run(ctx)

	app := &application{
		matches:  matchService,
		fixtures: service.NewFixtureService(database, tournaments, teams, matches),
		hub:      hub,
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      app.routes(cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  time.Minute,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", cfg.HTTPAddr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			server.Close()
		}
	}
}

func originChecker(cfg config.Config) func(r *http.Request) bool {
	if cfg.AllowAllOrigins() {
		return nil
	}
	allowed := make(map[string]bool, len(cfg.CORSOrigins))
	for _, origin := range cfg.CORSOrigins {
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		return allowed[r.Header.Get("Origin")]
	}
}
