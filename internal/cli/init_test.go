package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"budget/internal/config"
	"budget/internal/log"
)

func TestLoadConfig(t *testing.T) {
	for _, key := range []string{"BUDGET_CONFIG_FILE", "AMQP_URL", "LLM_API_KEY", "LOG_LEVEL", "TRUSTED_PROXIES", "CACHE_TTL"} {
		t.Setenv(key, "")
	}
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9000" || cfg.DataBackend != "memory" {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("PORT", "not-a-port")
	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestOpenStore(t *testing.T) {
	logger := log.New(log.Config{Output: &bytes.Buffer{}})

	res, err := OpenStore(context.Background(), logger, &config.Config{DataBackend: config.BackendMemory})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if res.Store == nil {
		t.Fatal("nil store")
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}

	if _, err := OpenStore(context.Background(), logger, &config.Config{DataBackend: "excel"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := OpenStore(context.Background(), logger, &config.Config{DataBackend: config.BackendPostgres}); err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Errorf("err = %v, want postgres backend failure", err)
	}
}
