package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

func TestJobTableSwitch(t *testing.T) {
	table := NewJobTable()
	if table.IsEnabled("reprice-all") {
		t.Fatal("unknown job must report disabled")
	}
	table.Register("reprice-all", true)
	table.Register("decision-retention", false)

	if !table.IsEnabled("reprice-all") || table.IsEnabled("decision-retention") {
		t.Fatalf("unexpected initial states %+v", table.Snapshot())
	}
	if err := table.SetEnabled(context.Background(), "reprice-all", false); err != nil {
		t.Fatalf("set enabled: %v", err)
	}
	if table.IsEnabled("reprice-all") {
		t.Fatal("expected job disabled")
	}
	if err := table.SetEnabled(context.Background(), "missing", true); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	snap := table.Snapshot()
	if len(snap) != 2 || snap[0].Name != "decision-retention" || snap[1].Name != "reprice-all" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestJobTableRecordRun(t *testing.T) {
	table := NewJobTable()
	table.Register("reprice-all", true)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.FixedZone("x", 3600))

	table.RecordRun("reprice-all", "reprice-all-0001", at, errors.New("partial"))
	state, ok := table.Get("reprice-all")
	if !ok {
		t.Fatal("expected state")
	}
	if state.LastRunID != "reprice-all-0001" || state.LastError != "partial" || state.LastRunAt.Location() != time.UTC {
		t.Fatalf("unexpected state %+v", state)
	}

	table.RecordRun("reprice-all", "reprice-all-0002", at, nil)
	if state, _ := table.Get("reprice-all"); state.LastError != "" {
		t.Fatalf("expected error cleared, got %+v", state)
	}

	table.Register("reprice-all", false)
	if state, _ := table.Get("reprice-all"); state.LastRunID != "reprice-all-0002" {
		t.Fatalf("re-register should keep history, got %+v", state)
	}
	table.RecordRun("missing", "x", at, nil)
	if _, ok := table.Get("missing"); ok {
		t.Fatal("unknown job should not be created by RecordRun")
	}
}

type memSwitchStore struct {
	data   map[string]string
	setErr error
}

func (m *memSwitchStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memSwitchStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value.(string)
	return nil
}

func TestJobTableSharedStore(t *testing.T) {
	store := &memSwitchStore{data: map[string]string{}}
	worker := NewJobTable().WithStore(store, nil)
	api := NewJobTable().WithStore(store, nil)
	worker.Register("reprice-all", true)
	api.Register("reprice-all", true)

	if err := api.SetEnabled(context.Background(), "reprice-all", false); err != nil {
		t.Fatalf("set enabled: %v", err)
	}
	if store.data["job:reprice-all:enabled"] != "false" {
		t.Fatalf("expected stored flag, got %v", store.data)
	}
	if worker.IsEnabled("reprice-all") {
		t.Fatal("worker should see the flag written by the api")
	}
	if state, _ := worker.Get("reprice-all"); state.Enabled {
		t.Fatalf("snapshot should report the effective flag, got %+v", state)
	}

	store.data["job:reprice-all:enabled"] = "garbage"
	if !worker.IsEnabled("reprice-all") {
		t.Fatal("unreadable flag should fall back to memory")
	}
	if worker.IsEnabled("unregistered") {
		t.Fatal("unknown jobs stay disabled")
	}

	store.setErr = errors.New("redis down")
	if err := api.SetEnabled(context.Background(), "reprice-all", true); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
