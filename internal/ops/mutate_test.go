package ops

import (
	"context"
	"testing"
	"time"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
)

func TestLabel(t *testing.T) {
	store, _ := newTestStore(t)
	r := seedGrowth(t, store, "old")

	out, err := Label(context.Background(), store, LabelInput{ID: r.ID, Label: "  Rak 3  "})
	if err != nil {
		t.Fatalf("Label() error = %v", err)
	}
	if !out.Updated || out.Label != "Rak 3" {
		t.Errorf("Label() = %+v", out)
	}

	out, err = Label(context.Background(), store, LabelInput{ID: r.ID, Label: "   "})
	if err != nil {
		t.Fatalf("Label() error = %v", err)
	}
	if out.Label != record.LabelDefault {
		t.Errorf("blank label = %q, want %q", out.Label, record.LabelDefault)
	}

	out, err = Label(context.Background(), store, LabelInput{ID: "01MISSING", Label: "x"})
	if err != nil || out.Updated {
		t.Errorf("unknown id: out=%+v err=%v, want not updated and no error", out, err)
	}
}

func TestPin_Toggle(t *testing.T) {
	store, clock := newTestStore(t)
	r := seedDisease(t, store, "")
	clock.Advance(time.Hour)

	out, err := Pin(context.Background(), store, PinInput{ID: r.ID})
	if err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if !out.Found || !out.IsPinned || out.PinnedAt == nil || !out.PinnedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("pin = %+v", out)
	}

	out, err = Pin(context.Background(), store, PinInput{ID: r.ID})
	if err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if out.IsPinned || out.PinnedAt != nil {
		t.Errorf("unpin = %+v", out)
	}

	out, err = Pin(context.Background(), store, PinInput{ID: "01MISSING"})
	if err != nil || out.Found {
		t.Errorf("unknown id: out=%+v err=%v", out, err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	r := seedGrowth(t, store, "")

	out, err := Delete(context.Background(), store, DeleteInput{ID: r.ID})
	if err != nil || !out.Deleted {
		t.Fatalf("Delete() = %+v, %v", out, err)
	}
	out, err = Delete(context.Background(), store, DeleteInput{ID: r.ID})
	if err != nil || out.Deleted {
		t.Errorf("second Delete() = %+v, %v, want Deleted=false", out, err)
	}
	if _, err := Delete(context.Background(), store, DeleteInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank id: error = %v, want INVALID_REQUEST", err)
	}
}

func TestBulkDelete(t *testing.T) {
	store, clock := newTestStore(t)
	a := seedGrowth(t, store, "")
	clock.Advance(time.Second)
	b := seedDisease(t, store, "")
	clock.Advance(time.Second)
	c := seedGrowth(t, store, "")

	out, err := BulkDelete(context.Background(), store, BulkDeleteInput{IDs: []string{a.ID, " " + b.ID, a.ID, "01MISSING"}})
	if err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	if out.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", out.Deleted)
	}
	if out.Message != "Deleted 2 records (1 id not found)" {
		t.Errorf("Message = %q", out.Message)
	}

	remaining := store.List(context.Background())
	if len(remaining) != 1 || remaining[0].ID != c.ID {
		t.Errorf("remaining = %v, want only %s", remaining, c.ID)
	}

	if _, err := BulkDelete(context.Background(), store, BulkDeleteInput{IDs: []string{" ", ""}}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank ids: error = %v, want INVALID_REQUEST", err)
	}

	out, err = BulkDelete(context.Background(), store, BulkDeleteInput{IDs: []string{"01MISSING"}})
	if err != nil || out.Deleted != 0 || out.Message != "No records matched the given ids" {
		t.Errorf("no match = %+v, %v", out, err)
	}
}

func TestCleanup(t *testing.T) {
	store, clock := newTestStore(t)
	old := seedGrowth(t, store, "old")
	clock.Set(t0.AddDate(0, 4, 0))
	fresh := seedDisease(t, store, "fresh")

	out, err := Cleanup(context.Background(), store, CleanupInput{})
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if out.Count != 1 || out.Removed[0] != old.ID || out.Retention != "3m" {
		t.Errorf("Cleanup() = %+v", out)
	}
	if out.Message != "Removed 1 record older than 3m" {
		t.Errorf("Message = %q", out.Message)
	}
	if _, err := store.Get(context.Background(), fresh.ID); err != nil {
		t.Errorf("fresh record removed: %v", err)
	}

	out, err = Cleanup(context.Background(), store, CleanupInput{Retention: "1y"})
	if err != nil || out.Count != 0 || out.Message != "No records older than 1y" {
		t.Errorf("second Cleanup() = %+v, %v", out, err)
	}

	if _, err := Cleanup(context.Background(), store, CleanupInput{Retention: "soon"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad retention: error = %v, want INVALID_REQUEST", err)
	}
}
