package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
settlement:
  target_url: https://settle.example.com/hook
  signing_secret: filesecret
  dispatch_interval: 2s
limits:
  kiss_cost: 0.7
  swipes_per_minute: 10
  clip_retention: 96h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Settlement.TargetURL != "https://settle.example.com/hook" {
		t.Fatalf("unexpected settlement target url: %s", cfg.Settlement.TargetURL)
	}
	if cfg.Settlement.SigningSecret != "filesecret" {
		t.Fatalf("unexpected signing secret: %s", cfg.Settlement.SigningSecret)
	}
	if cfg.Settlement.DispatchInterval != 2*time.Second {
		t.Fatalf("unexpected dispatch interval: %s", cfg.Settlement.DispatchInterval)
	}
	if cfg.Limits.KissCost != 0.7 {
		t.Fatalf("unexpected kiss cost: %v", cfg.Limits.KissCost)
	}
	if cfg.Limits.SwipesPerMinute != 10 {
		t.Fatalf("unexpected swipes/minute: %d", cfg.Limits.SwipesPerMinute)
	}
	if cfg.Limits.ClipRetention != 96*time.Hour {
		t.Fatalf("unexpected clip retention: %s", cfg.Limits.ClipRetention)
	}

	if cfg.Limits.RugCost != 0.1 {
		t.Fatalf("rug cost default should stay 0.1, got %v", cfg.Limits.RugCost)
	}
	if cfg.Limits.SwipesPer10Seconds != 12 {
		t.Fatalf("swipes per 10s default should stay 12, got %d", cfg.Limits.SwipesPer10Seconds)
	}
	if cfg.Settlement.MaxAttempts != 8 {
		t.Fatalf("settlement max attempts default should stay 8, got %d", cfg.Settlement.MaxAttempts)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Limits.KissCost != 0.5 || cfg.Limits.RugCost != 0.1 {
		t.Fatalf("unexpected default costs: kiss=%v rug=%v", cfg.Limits.KissCost, cfg.Limits.RugCost)
	}
	if cfg.Limits.CandidatePageSize != 20 || cfg.Limits.CandidatePageMax != 50 {
		t.Fatalf("unexpected candidate page defaults: %d/%d", cfg.Limits.CandidatePageSize, cfg.Limits.CandidatePageMax)
	}
	if cfg.Limits.ThreadPageSize != 50 || cfg.Limits.ThreadPageMax != 100 {
		t.Fatalf("unexpected thread page defaults: %d/%d", cfg.Limits.ThreadPageSize, cfg.Limits.ThreadPageMax)
	}
	if cfg.Settlement.DispatchInterval != 5*time.Second {
		t.Fatalf("unexpected dispatch interval default: %s", cfg.Settlement.DispatchInterval)
	}
	if cfg.Limits.ClipRetention != 30*24*time.Hour {
		t.Fatalf("unexpected clip retention default: %s", cfg.Limits.ClipRetention)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
settlement:
  signing_secret: filesecret
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	t.Setenv("SETTLEMENT_SIGNING_SECRET", "envsecret")
	t.Setenv("SETTLEMENT_DISPATCH_BATCH", "7")
	t.Setenv("JWT_ACCESS_TTL", "30m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Settlement.SigningSecret != "envsecret" {
		t.Fatalf("expected env secret to win, got %s", cfg.Settlement.SigningSecret)
	}
	if cfg.Settlement.DispatchBatch != 7 {
		t.Fatalf("unexpected dispatch batch: %d", cfg.Settlement.DispatchBatch)
	}
	if cfg.Auth.JWTAccessTTL != 30*time.Minute {
		t.Fatalf("unexpected jwt access ttl: %s", cfg.Auth.JWTAccessTTL)
	}
}

func TestLoadRejectsMalformedEnvOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SETTLEMENT_DISPATCH_INTERVAL", "soon")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for malformed duration override")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_REGION",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"BOT_TOKEN",
		"MODERATOR_CHAT_ID",
		"SETTLEMENT_TARGET_URL",
		"SETTLEMENT_SIGNING_SECRET",
		"SETTLEMENT_DISPATCH_INTERVAL",
		"SETTLEMENT_DISPATCH_BATCH",
		"SETTLEMENT_MAX_ATTEMPTS",
		"SETTLEMENT_REQUEST_TIMEOUT",
		"CLIP_RETENTION",
	} {
		t.Setenv(key, "")
	}
}
