package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bloglens/adbudget/internal/models"
	"github.com/bloglens/adbudget/internal/observability"
)

func setupRedisStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	ms, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: ms.Addr()})
	return ms, NewRedisStoreFromClient(client, ttl, &observability.MockMetricsRegistry{})
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ms, store := setupRedisStore(t, time.Minute)
	defer ms.Close()
	ctx := context.Background()

	if _, err := store.Load(ctx, "acct"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	st := &State{
		SelectedStrategy: "aggressive",
		Plan: &models.ReallocationPlan{
			PlanID: "plan-1",
			Reallocations: []models.Reallocation{
				{Platform: "naver", CurrentBudget: 250_000, ChangeAmount: 70_000, Priority: models.PriorityHigh},
			},
		},
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, "acct", st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx, "acct")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.SelectedStrategy != "aggressive" {
		t.Errorf("SelectedStrategy = %q", got.SelectedStrategy)
	}
	if got.Plan == nil || got.Plan.PlanID != "plan-1" || len(got.Plan.Reallocations) != 1 {
		t.Errorf("plan not restored: %+v", got.Plan)
	}
	if got.Plan.Reallocations[0].Priority != models.PriorityHigh {
		t.Errorf("Priority = %q", got.Plan.Reallocations[0].Priority)
	}

	if err := store.Clear(ctx, "acct"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Load(ctx, "acct"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	ms, store := setupRedisStore(t, time.Minute)
	defer ms.Close()
	ctx := context.Background()

	if err := store.Save(ctx, "acct", &State{SelectedStrategy: "balanced"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ms.FastForward(2 * time.Minute)
	if _, err := store.Load(ctx, "acct"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestRedisStoreKeysAreNamespaced(t *testing.T) {
	ms, store := setupRedisStore(t, time.Minute)
	defer ms.Close()

	if err := store.Save(context.Background(), "acct", &State{SelectedStrategy: "balanced"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !ms.Exists("adbudget:session:acct") {
		t.Errorf("expected namespaced key, have %v", ms.Keys())
	}
}
