// Package config reads server settings from the environment, with defaults
// suitable for local development.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// DatabaseURL is the Postgres DSN; empty selects the in-memory store.
	DatabaseURL string
	// RoundSeconds is the length of one question window.
	RoundSeconds int
	// QuestionCount is the number of questions drawn per lobby.
	QuestionCount int
	// SweepInterval is the cadence of the lobby/answer cleanup sweep.
	SweepInterval time.Duration
	// StaleAfter reclaims any lobby wholly inactive for this long.
	StaleAfter time.Duration
	// IdleAfter reclaims empty or single-player lobbies after this grace.
	IdleAfter time.Duration
}

func Load() Config {
	return Config{
		Addr:          getString("ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RoundSeconds:  getInt("ROUND_SECONDS", 60),
		QuestionCount: getInt("QUESTION_COUNT", 10),
		SweepInterval: getDuration("SWEEP_INTERVAL", 2*time.Minute),
		StaleAfter:    getDuration("LOBBY_STALE_AFTER", 5*time.Minute),
		IdleAfter:     getDuration("LOBBY_IDLE_AFTER", 2*time.Minute),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
