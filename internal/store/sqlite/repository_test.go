package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"budget/internal/core"
	"budget/internal/store"
	"budget/internal/store/storetest"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	r, err := NewRepository(filepath.Join(t.TempDir(), "data", "budget.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestRepo(t) })
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	r, err := NewRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.CreateGoal(context.Background(), core.Goal{Title: "Bike", TargetAmount: decimal.NewFromInt(400), CurrentAmount: decimal.Zero}); err != nil {
		t.Fatal(err)
	}
	r.Close()

	r, err = NewRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()
	goals, err := r.ListGoals(context.Background())
	if err != nil || len(goals) != 1 || !goals[0].TargetDate.IsZero() {
		t.Fatalf("expected persisted goal without target date, got %+v (err=%v)", goals, err)
	}
}

func TestUnknownStoredCategoryReadsAsOther(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.db.Exec(`INSERT INTO transactions (id, amount, category, date, description) VALUES ('legacy', '-3', 'petfood', '2025-01-02', 'kibble')`)
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.GetTransaction(context.Background(), "legacy")
	if err != nil || got.Category != core.Other {
		t.Fatalf("expected category other, got %+v (err=%v)", got, err)
	}
}
