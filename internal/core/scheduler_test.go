package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePruner struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (p *fakePruner) PruneImportRuns(_ context.Context, before time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, before)
	return p.deleted, p.err
}

func TestPruneHistory(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	pruner := &fakePruner{deleted: 7}

	got := pruneHistory(context.Background(), pruner, 30, func() time.Time { return now })
	if got != 7 {
		t.Errorf("pruneHistory() = %d, want 7", got)
	}
	want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if len(pruner.cutoffs) != 1 || !pruner.cutoffs[0].Equal(want) {
		t.Errorf("cutoffs = %v, want [%v]", pruner.cutoffs, want)
	}
}

func TestPruneHistory_Error(t *testing.T) {
	pruner := &fakePruner{deleted: 3, err: errors.New("db down")}
	if got := pruneHistory(context.Background(), pruner, 30, time.Now); got != 0 {
		t.Errorf("pruneHistory() = %d, want 0 on error", got)
	}
}

func TestHistoryConfig_Defaults(t *testing.T) {
	got := HistoryConfig{}.withDefaults()
	if got.RetentionDays != 180 || got.Interval != 24*time.Hour {
		t.Errorf("withDefaults() = %+v", got)
	}
	custom := HistoryConfig{RetentionDays: 7, Interval: time.Hour}.withDefaults()
	if custom.RetentionDays != 7 || custom.Interval != time.Hour {
		t.Errorf("withDefaults() overrode values: %+v", custom)
	}
}

func TestStartHistoryPruner_StopsOnCancel(t *testing.T) {
	pruner := &fakePruner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		StartHistoryPruner(ctx, pruner, HistoryConfig{RetentionDays: 1, Interval: time.Hour})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop after cancel")
	}
	if len(pruner.cutoffs) != 1 {
		t.Errorf("prune calls = %d, want 1 at startup", len(pruner.cutoffs))
	}
}
