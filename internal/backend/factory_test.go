package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/store/memory"
	"budget/internal/store/sqlite"

	"github.com/shopspring/decimal"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite ok", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, ""},
		{"sqlite missing path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres missing url", Config{Type: PostgresBackend}, "database URL"},
		{"supabase missing key", Config{Type: SupabaseBackend, SupabaseURL: "https://x.supabase.co"}, "Supabase URL and key"},
		{"unknown", Config{Type: "sheets"}, "invalid backend type: sheets (valid: memory, sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://u@h/db"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != PostgresBackend || cfg.DatabaseURL != "postgres://u@h/db" {
		t.Errorf("cfg = %+v", cfg)
	}
	_, err = FromAppConfig(&config.Config{DataBackend: "excel"})
	if err == nil || !strings.Contains(err.Error(), "memory, sqlite, postgres, supabase") {
		t.Errorf("unknown backend err = %v, want the valid types listed", err)
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	want := []string{"memory", "sqlite", "postgres", "supabase"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := res.Store.(*memory.Store); !ok {
			t.Errorf("store = %T", res.Store)
		}
		if err := res.Cleanup(); err != nil {
			t.Error(err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "budget.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		if err != nil {
			t.Fatal(err)
		}
		defer res.Cleanup()
		if _, ok := res.Store.(*sqlite.Repository); !ok {
			t.Errorf("store = %T", res.Store)
		}
		if err := res.Store.Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
		_, err = res.Store.CreateGoal(ctx, core.Goal{Title: "t", TargetAmount: decimal.NewFromInt(10)})
		if err != nil {
			t.Fatalf("create goal: %v", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend}); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
