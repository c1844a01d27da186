package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"sctnet/internal/model"
)

func TestStoreContract(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{name: "memory", open: func(t *testing.T) Store { return NewMemoryStore() }},
		{name: "sqlite", open: func(t *testing.T) Store {
			store := NewSQLiteStore(filepath.Join(t.TempDir(), "sctnet.db"))
			t.Cleanup(func() {
				_ = store.Close()
			})
			return store
		}},
	}
	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			ctx := context.Background()
			store := backend.open(t)
			if err := store.SaveResonator(ctx, model.ResonatorRecord{ID: "early"}); !errors.Is(err, ErrNotInitialized) {
				t.Fatalf("expected ErrNotInitialized before init, got %v", err)
			}
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			exerciseStore(t, ctx, store)
		})
	}
}

func exerciseStore(t *testing.T, ctx context.Context, store Store) {
	t.Helper()

	for _, rec := range []model.ResonatorRecord{
		{VersionedRecord: Versioned(), ID: "f_209", Freq0: 209, LeakageFactor: 5, LeakagePeriod: 36, Thetas: []float64{-1, -5, -5, -5}, Weights: []float64{11, 9, 10, 10, 10}},
		{VersionedRecord: Versioned(), ID: "f_104", Freq0: 104, LeakageFactor: 5, LeakagePeriod: 72, Thetas: []float64{-2, -4, -4, -4}, Weights: []float64{12, 10, 10, 10, 10}},
	} {
		if err := store.SaveResonator(ctx, rec); err != nil {
			t.Fatalf("save resonator %s: %v", rec.ID, err)
		}
	}

	got, ok, err := store.GetResonator(ctx, "f_104")
	if err != nil || !ok {
		t.Fatalf("get resonator: ok=%t err=%v", ok, err)
	}
	if got.LeakagePeriod != 72 || got.Weights[0] != 12 {
		t.Fatalf("unexpected resonator: %+v", got)
	}
	got.Weights[0] = 99
	again, _, _ := store.GetResonator(ctx, "f_104")
	if again.Weights[0] != 12 {
		t.Fatal("store returned an aliased record")
	}

	if _, ok, err := store.GetResonator(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%t err=%v", ok, err)
	}

	list, err := store.ListResonators(ctx)
	if err != nil {
		t.Fatalf("list resonators: %v", err)
	}
	if len(list) != 2 || list[0].ID != "f_104" || list[1].ID != "f_209" {
		t.Fatalf("unexpected resonator order: %+v", list)
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{VersionedRecord: Versioned(), ID: "r2", ResonatorID: "f_104", Kind: model.RunKindChirp, Ticks: 10, SpikeCounts: []int{1, 2, 3, 4}, CreatedAt: base.Add(time.Minute)},
		{VersionedRecord: Versioned(), ID: "r1", ResonatorID: "f_104", Kind: model.RunKindSine, Frequency: 104, Ticks: 10, SpikeCounts: []int{4, 3, 2, 1}, CreatedAt: base},
		{VersionedRecord: Versioned(), ID: "r3", ResonatorID: "f_209", Kind: model.RunKindSine, Frequency: 209, Ticks: 5, CreatedAt: base},
	}
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	run, ok, err := store.GetRun(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if run.Kind != model.RunKindSine || len(run.SpikeCounts) != 4 || !run.CreatedAt.Equal(base) {
		t.Fatalf("unexpected run: %+v", run)
	}

	forResonator, err := store.ListRuns(ctx, "f_104")
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(forResonator) != 2 || forResonator[0].ID != "r1" || forResonator[1].ID != "r2" {
		t.Fatalf("unexpected runs: %+v", forResonator)
	}
	all, err := store.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("list all runs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}

	if err := store.DeleteResonator(ctx, "f_104"); err != nil {
		t.Fatalf("delete resonator: %v", err)
	}
	if _, ok, _ := store.GetResonator(ctx, "f_104"); ok {
		t.Fatal("resonator still present after delete")
	}
	left, err := store.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("list runs after delete: %v", err)
	}
	if len(left) != 1 || left[0].ID != "r3" {
		t.Fatalf("runs not cascaded on delete: %+v", left)
	}
}
