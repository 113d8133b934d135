package usecase

import (
	"context"
	"testing"
	"time"
)

type manualScheduler struct {
	job     func(time.Time)
	stopped bool
}

func (m *manualScheduler) Start(_ context.Context, job func(time.Time)) error {
	m.job = job
	return nil
}

func (m *manualScheduler) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func TestRunnerRunsAllPipelinesPerTick(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetch := &fakeFetcher{pages: map[string]string{
		"https://ccb.vermont.gov/rss.xml": vtFeedFixture,
	}}
	driver := &manualScheduler{}

	r := NewRunner(driver, []*Pipeline{newTestPipeline(vtRegistry(), fetch, store)}, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if driver.job == nil {
		t.Fatal("runner did not register a job")
	}

	driver.job(time.Now())
	if len(store.records) != 2 {
		t.Fatalf("tick should ingest both items, got %d rows", len(store.records))
	}
	if len(store.runLogs) != 1 {
		t.Fatalf("tick should log one run, got %d", len(store.runLogs))
	}

	// A second tick finds nothing new but still logs.
	driver.job(time.Now())
	if len(store.records) != 2 {
		t.Fatalf("second tick must not duplicate rows, got %d", len(store.records))
	}
	if len(store.runLogs) != 2 {
		t.Fatalf("second tick should log another run, got %d", len(store.runLogs))
	}

	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if !driver.stopped {
		t.Fatal("runner did not stop the driver")
	}
}

func TestRunnerWithoutDriverIsNoOp(t *testing.T) {
	t.Parallel()

	r := NewRunner(nil, nil, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}
