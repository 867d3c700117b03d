// Package app opens the database and wires every core component together.
package app

import (
	"fmt"

	"github.com/neilberkman/vigil/internal/core/calendar"
	"github.com/neilberkman/vigil/internal/core/clock"
	"github.com/neilberkman/vigil/internal/core/config"
	"github.com/neilberkman/vigil/internal/core/db"
	"github.com/neilberkman/vigil/internal/core/device"
	"github.com/neilberkman/vigil/internal/core/novena"
	"github.com/neilberkman/vigil/internal/core/sessions"
	"github.com/neilberkman/vigil/internal/core/streak"
)

type App struct {
	Config   *config.Config
	DB       *db.DB
	Clock    clock.Clock
	Device   *device.Identity
	Streak   *streak.Tracker
	Sessions *sessions.Store
	Novenas  *novena.Scheduler
}

// Open opens cfg.DBPath and loads every collection. A nil clk uses the
// system clock in cfg.Location.
func Open(cfg *config.Config, clk clock.Clock) (*App, error) {
	database, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if clk == nil {
		clk = clock.System{Location: cfg.Location}
	}

	identity := device.New(database)
	tracker := streak.NewTracker(database)
	store := sessions.New(database, sessions.Options{
		Clock:        clk,
		Device:       identity,
		Streak:       tracker,
		LegacyHour:   cfg.LegacyHour,
		LegacyMinute: cfg.LegacyMinute,
	})

	return &App{
		Config:   cfg,
		DB:       database,
		Clock:    clk,
		Device:   identity,
		Streak:   tracker,
		Sessions: store,
		Novenas:  novena.New(database, store, clk, identity),
	}, nil
}

// Today is the current calendar day in the configured time zone
func (a *App) Today() calendar.Date {
	return calendar.Today(a.Clock.Now())
}

func (a *App) Close() error {
	return a.DB.Close()
}
