package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bloglens/adbudget/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	if _, err := store.Load(ctx, "acct"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	st := &State{
		SelectedStrategy: "aggressive",
		Plan:             &models.ReallocationPlan{PlanID: "plan-1"},
		UpdatedAt:        time.Now(),
	}
	if err := store.Save(ctx, "acct", st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx, "acct")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.SelectedStrategy != "aggressive" || got.Plan.PlanID != "plan-1" {
		t.Errorf("unexpected state: %+v", got)
	}

	if err := store.Clear(ctx, "acct"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Load(ctx, "acct"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	if err := store.Save(ctx, "acct", &State{SelectedStrategy: "balanced"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Load(ctx, "acct"); err != nil {
		t.Fatalf("Load before expiry failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, err := store.Load(ctx, "acct"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}
