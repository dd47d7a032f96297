package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lfbianchini/talksoup/internal/answers"
	"github.com/lfbianchini/talksoup/internal/broadcast"
	"github.com/lfbianchini/talksoup/internal/config"
	"github.com/lfbianchini/talksoup/internal/httpapi"
	"github.com/lfbianchini/talksoup/internal/lobby"
	"github.com/lfbianchini/talksoup/internal/profile"
	"github.com/lfbianchini/talksoup/internal/registry"
	"github.com/lfbianchini/talksoup/internal/replies"
	"github.com/lfbianchini/talksoup/internal/store"
	"github.com/lfbianchini/talksoup/internal/timer"
	"github.com/lfbianchini/talksoup/internal/ws"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	var st store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalw("open store", "err", err)
		}
	} else {
		log.Info("DATABASE_URL unset, using in-memory store")
		st = store.NewMemory()
	}

	reg := registry.New()
	profiles := profile.NewDirectory()
	router := broadcast.NewRouter(reg, log)
	timers := timer.New(st, router, log)
	lobbies := lobby.NewManager(st, timers, log, lobby.Config{
		QuestionCount: cfg.QuestionCount,
		StaleAfter:    cfg.StaleAfter,
		IdleAfter:     cfg.IdleAfter,
	})
	answerSvc := answers.NewService(st)
	replySvc := replies.NewService(st)

	gateway := ws.NewGateway(reg, profiles, router, lobbies, answerSvc, replySvc, timers, log, cfg.RoundSeconds)
	handler := httpapi.SetupRoutes(gateway, lobbies)

	// Periodic garbage collection of abandoned lobbies and orphaned answers.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			lobbies.Sweep(context.Background(), time.Now())
		}
	}()

	log.Infow("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalw("server exited", "err", err)
	}
}
