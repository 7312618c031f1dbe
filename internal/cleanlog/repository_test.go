package cleanlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/ozmo-core/internal/events"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/database"
	_ "github.com/nerrad567/ozmo-core/migrations"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return NewRepository(db)
}

func TestUpsertAndRecentLogs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	logs := []events.CleanLogEntry{
		{Timestamp: 1713700000, Type: "auto", Area: 28, Duration: 1800, StopReason: 1, ImageURL: "https://portal/img/1"},
		{Timestamp: 1713600000, Type: "spotArea", Area: 9, Duration: 600, StopReason: 2},
	}
	if err := repo.UpsertLogs(ctx, logs); err != nil {
		t.Fatalf("UpsertLogs: %v", err)
	}

	got, err := repo.RecentLogs(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Timestamp != 1713700000 {
		t.Errorf("newest first violated: %v", got)
	}
	if got[0].Type != "auto" || got[0].Area != 28 || got[0].Duration != 1800 {
		t.Errorf("entry = %+v", got[0])
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	entry := events.CleanLogEntry{Timestamp: 1713700000, Type: "auto", Area: 28}
	if err := repo.UpsertLogs(ctx, []events.CleanLogEntry{entry}); err != nil {
		t.Fatalf("UpsertLogs: %v", err)
	}

	// Same timestamp with refreshed metadata replaces the row.
	entry.Area = 29
	entry.ImageURL = "https://portal/img/1"
	if err := repo.UpsertLogs(ctx, []events.CleanLogEntry{entry}); err != nil {
		t.Fatalf("UpsertLogs (second): %v", err)
	}

	got, err := repo.RecentLogs(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (no duplicates)", len(got))
	}
	if got[0].Area != 29 || got[0].ImageURL != "https://portal/img/1" {
		t.Errorf("entry = %+v, want refreshed fields", got[0])
	}
}

func TestStatusHistory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, status := range []events.StatusEvent{
		{Available: true, State: events.StateCleaning},
		{Available: true, State: events.StateDocked},
		{Available: false, State: events.StateUnknown},
	} {
		if err := repo.RecordStatus(ctx, status); err != nil {
			t.Fatalf("RecordStatus: %v", err)
		}
	}

	got, err := repo.StatusHistory(ctx, 2)
	if err != nil {
		t.Fatalf("StatusHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want limit respected", len(got))
	}
	if got[0].Available || got[0].State != "unknown" {
		t.Errorf("newest = %+v, want the unavailable record", got[0])
	}
	if !got[1].Available || got[1].State != "docked" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestRecorderPersistsEvents(t *testing.T) {
	repo := newTestRepository(t)

	status := events.NewEmitter[events.StatusEvent]("status", nil)
	bundle := events.NewBundle(events.Bundle{
		Battery:       events.NewEmitter[events.BatteryEvent]("battery", nil),
		CleanLogs:     events.NewEmitter[events.CleanLogEvent]("cleanLogs", nil),
		CustomCommand: events.NewEmitter[events.CustomCommandEvent]("customCommand", nil),
		Error:         events.NewEmitter[events.ErrorEvent]("error", nil),
		FanSpeed:      events.NewEmitter[events.FanSpeedEvent]("fanSpeed", nil),
		LifeSpan:      events.NewPollingEmitter[events.LifeSpanEvent]("lifeSpan", time.Minute, nil, status),
		Map:           events.NewEmitter[events.MapEvent]("map", nil),
		Position:      events.NewEmitter[events.PositionEvent]("position", nil),
		Rooms:         events.NewEmitter[events.RoomsEvent]("rooms", nil),
		Stats:         events.NewEmitter[events.StatsEvent]("stats", nil),
		Status:        status,
		WaterInfo:     events.NewEmitter[events.WaterInfoEvent]("waterInfo", nil),
	})

	recorder := NewRecorder(repo, bundle, nil)
	defer recorder.Stop()

	bundle.CleanLogs.Notify(events.CleanLogEvent{Logs: []events.CleanLogEntry{
		{Timestamp: 1713700000, Type: "auto", Area: 30},
	}})
	bundle.Status.Notify(events.StatusEvent{Available: true, State: events.StateCleaning})

	ctx := context.Background()
	logs, err := repo.RecentLogs(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Timestamp != 1713700000 {
		t.Errorf("logs = %v", logs)
	}

	history, err := repo.StatusHistory(ctx, 10)
	if err != nil {
		t.Fatalf("StatusHistory: %v", err)
	}
	if len(history) != 1 || history[0].State != "cleaning" {
		t.Errorf("history = %v", history)
	}
}
