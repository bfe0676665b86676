package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobs(t *testing.T) {
	registry := NewRegistry()
	jobA := &stubJob{name: "b"}
	jobB := &stubJob{name: "a"}
	registry.Register(jobA)
	registry.Register(jobB)
	registry.Register(nil)
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	// ensure caller cannot mutate internal slice
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
	if names := registry.Names(); names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestRegistryLookupAndReplace(t *testing.T) {
	first := &stubJob{name: "reprice-all"}
	registry := NewRegistry(first)
	if got, ok := registry.Lookup("reprice-all"); !ok || got != first {
		t.Fatal("expected lookup to find job")
	}
	if _, ok := registry.Lookup("missing"); ok {
		t.Fatal("unexpected job")
	}

	second := &stubJob{name: "reprice-all"}
	registry.Register(second)
	if len(registry.Jobs()) != 1 {
		t.Fatalf("expected replacement, got %d jobs", len(registry.Jobs()))
	}
	if got, _ := registry.Lookup("reprice-all"); got != second {
		t.Fatal("expected replaced job")
	}
}
