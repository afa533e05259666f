package postgres

import (
	"context"
	"os"
	"testing"

	"budget/internal/store"
	"budget/internal/store/storetest"
)

// Set BUDGET_TEST_DATABASE_URL to an empty scratch database to run these.
func TestRepositoryContract(t *testing.T) {
	url := os.Getenv("BUDGET_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BUDGET_TEST_DATABASE_URL not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		r, err := NewRepository(context.Background(), url)
		if err != nil {
			t.Fatalf("open repository: %v", err)
		}
		if _, err := r.pool.Exec(context.Background(), "TRUNCATE transactions, budgets, goals"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { r.Close() })
		return r
	})
}

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@h:5432/db": "pgx5://u:p@h:5432/db",
		"postgresql://u@h/db?x=1":  "pgx5://u@h/db?x=1",
		"pgx5://already/rewritten": "pgx5://already/rewritten",
	}
	for in, want := range cases {
		if got := migrateURL(in); got != want {
			t.Errorf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}
