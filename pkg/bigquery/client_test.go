package bigquery

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/repricer/pkg/config"
)

func TestConfiguredTables(t *testing.T) {
	cfg := config.BigQueryConfig{DecisionsTable: " reprice_decisions "}

	tables := configuredTables(cfg)

	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if tables[0] != "reprice_decisions" {
		t.Fatalf("expected reprice_decisions, got %s", tables[0])
	}
	if len(configuredTables(config.BigQueryConfig{})) != 0 {
		t.Fatal("expected no tables for empty config")
	}
}

func TestClientOptionsPrioritizesJSON(t *testing.T) {
	gcp := config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	}

	opts := clientOptions(gcp)
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
}

func TestClientOptionsEmpty(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected 0 options when no credentials provided, got %d", len(opts))
	}
}

type fakeInserter struct {
	table string
	rows  any
	err   error
}

func (f *fakeInserter) Put(_ context.Context, src any) error {
	f.rows = src
	return f.err
}

func TestInsertDecisions(t *testing.T) {
	fake := &fakeInserter{}
	client := &Client{cfg: config.BigQueryConfig{DecisionsTable: "reprice_decisions"}}
	client.inserter = func(table string) rowInserter {
		fake.table = table
		return fake
	}

	if err := client.InsertDecisions(context.Background(), nil); err != nil {
		t.Fatalf("empty insert should be a no-op: %v", err)
	}
	if fake.rows != nil {
		t.Fatal("expected no put for empty rows")
	}

	price := 11.5
	rows := []DecisionRow{{RunID: "run-1", ProductID: "p-1", NewPrice: NullFloat(&price), LowestVendor: NullString("")}}
	if err := client.InsertDecisions(context.Background(), rows); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if fake.table != "reprice_decisions" {
		t.Fatalf("unexpected table %s", fake.table)
	}
	got, ok := fake.rows.([]DecisionRow)
	if !ok || len(got) != 1 || !got[0].NewPrice.Valid || got[0].LowestVendor.Valid {
		t.Fatalf("unexpected rows %+v", fake.rows)
	}

	fake.err = errors.New("quota")
	if err := client.InsertDecisions(context.Background(), rows); err == nil {
		t.Fatal("expected insert error")
	}
}

func TestInsertRowsRequiresClient(t *testing.T) {
	var client *Client
	if err := client.InsertDecisions(context.Background(), []DecisionRow{{}}); !errors.Is(err, errClientNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := (&Client{}).InsertRows(context.Background(), "t", nil); !errors.Is(err, errClientNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}
