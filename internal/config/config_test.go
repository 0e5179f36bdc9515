// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"testing"
	"time"
)

const goodSecret = "k9$Tr2!xQ8pL4vN7mB3wZ6cY1dF5gH0j"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CQ_SESSION_SECRET", goodSecret)
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBDriver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr())
	}
	if !cfg.IsDevelopment() {
		t.Error("default env must be development")
	}
	if cfg.TrustIdentityHeader {
		t.Error("identity header trust must default to off")
	}
	if cfg.SyncPollInterval() != 10*time.Second {
		t.Errorf("SyncPollInterval = %v, want 10s", cfg.SyncPollInterval())
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("CQ_SESSION_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing session secret")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("CQ_SESSION_SECRET", "too-short")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for short session secret")
	}
}

func TestLoadRejectsKnownWeakSecret(t *testing.T) {
	t.Setenv("CQ_SESSION_SECRET", "change-me-to-32-byte-secret-key!")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for known weak secret")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CQ_DB_DRIVER", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadMySQLRequiresDSN(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CQ_DB_DRIVER", "mysql")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for mysql without DSN")
	}

	t.Setenv("CQ_DB_DSN", "user:pass@tcp(localhost:3306)/chainquest?parseTime=true")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with DSN: %v", err)
	}
}

func TestSyncPollIntervalOverride(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CQ_SYNC_INTERVAL", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SyncPollInterval() != 30*time.Second {
		t.Errorf("SyncPollInterval = %v, want 30s", cfg.SyncPollInterval())
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	if hasMinimumEntropy("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("single character class must fail the entropy check")
	}
	if !hasMinimumEntropy(goodSecret) {
		t.Error("mixed-class secret must pass the entropy check")
	}
}
