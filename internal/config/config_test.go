package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "GEMINI_MODEL", "MONGODB_URI", "ACCESS_TOKEN_EXPIRE_MINUTES",
		"LIVE_ANALYSIS_INTERVAL", "LIVE_ANALYSIS_TIMEOUT",
		"LIVE_HEARTBEAT_INTERVAL", "LIVE_HEARTBEAT_GRACE", "LIVE_ANALYSIS_WORKERS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Fatalf("expected :8000, got %q", cfg.Server.Addr)
	}
	if cfg.AI.Model != "gemini-2.0-flash-001" {
		t.Fatalf("unexpected default model: %q", cfg.AI.Model)
	}
	if cfg.Live.AnalysisInterval != 10*time.Second {
		t.Fatalf("unexpected analysis interval: %s", cfg.Live.AnalysisInterval)
	}
	if cfg.Live.HeartbeatGrace != 40*time.Second {
		t.Fatalf("unexpected heartbeat grace: %s", cfg.Live.HeartbeatGrace)
	}
	if cfg.Live.AnalysisWorkers != 2 {
		t.Fatalf("unexpected worker count: %d", cfg.Live.AnalysisWorkers)
	}
	if cfg.Mongo.Enabled() {
		t.Fatal("mongo must be disabled without MONGODB_URI")
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("unexpected token ttl: %s", cfg.Auth.TokenTTL)
	}
}

func TestLoadServerAddrForms(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.Server.Addr)
	}

	t.Setenv("PORT", "127.0.0.1:9090")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Fatalf("expected host:port passthrough, got %q", cfg.Server.Addr)
	}
}

func TestLoadLiveOverrides(t *testing.T) {
	t.Setenv("LIVE_ANALYSIS_INTERVAL", "2s")
	t.Setenv("LIVE_ANALYSIS_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Live.AnalysisInterval != 2*time.Second {
		t.Fatalf("unexpected interval: %s", cfg.Live.AnalysisInterval)
	}
	if cfg.Live.AnalysisWorkers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Live.AnalysisWorkers)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("LIVE_ANALYSIS_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unparseable duration")
	}

	t.Setenv("LIVE_ANALYSIS_INTERVAL", "-5s")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a negative duration")
	}
}

func TestLoadRejectsBadTokenTTL(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a non-positive ttl")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	if (AIConfig{}).Enabled() {
		t.Fatal("empty config must be disabled")
	}
	if !(AIConfig{APIKey: "k", Model: "m"}).Enabled() {
		t.Fatal("key and model must enable the config")
	}
}
