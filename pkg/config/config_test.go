package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"VendorRadar/pkg/model"
)

const sampleYAML = `
app:
  name: vendor-radar
  env: test
database:
  postgres:
    host: localhost
    user: radar
    password: secret
    dbname: vendor_radar
nats:
  enabled: true
  url: nats://localhost:4222
api:
  port: "9090"
  read_timeout: 5s
  allowed_origins: ["http://localhost:5173"]
llm:
  api_url: http://localhost:8000/v1
  model: gpt-4o-mini
  timeout: 45s
monitoring:
  thresholds:
    percentage: 25
    count: "7"
    min_po_lines: -3
    worsening_days: abc
  vendor_rules:
    - vendor_name: Stellar Supplies
      rule_type: po_ack
      threshold: 24
notification:
  enabled: true
  channel: teams
  recipients: https://example.invalid/webhook
scheduler:
  recompute_spec: "@every 10m"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.API.Port != "9090" || cfg.API.ReadTimeout != 5*time.Second {
		t.Fatalf("unexpected api config %+v", cfg.API)
	}
	if cfg.API.WriteTimeout != 60*time.Second {
		t.Fatalf("expected default write timeout, got %v", cfg.API.WriteTimeout)
	}
	if cfg.LLM.Timeout != 45*time.Second || cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Database.Postgres.Port != 5432 || cfg.Database.Postgres.SSLMode != "disable" {
		t.Fatalf("expected postgres defaults, got %+v", cfg.Database.Postgres)
	}
	if !cfg.Notification.Enabled || cfg.Notification.Channel != model.ChannelTeams {
		t.Fatalf("unexpected notification %+v", cfg.Notification.NotificationSettings)
	}
	if cfg.Scheduler.RecomputeSpec != "@every 10m" || cfg.Scheduler.RolloverSpec != "0 0 * * *" {
		t.Fatalf("unexpected scheduler %+v", cfg.Scheduler)
	}
	if len(cfg.Monitoring.VendorRules) != 1 || cfg.Monitoring.VendorRules[0].RuleType != model.RuleTypePOAck {
		t.Fatalf("unexpected vendor rules %+v", cfg.Monitoring.VendorRules)
	}

	th := cfg.Thresholds()
	want := model.Thresholds{Percentage: 25, Count: 7, MinPOLines: 0, WorseningDays: 0, WorseningPercentage: 0}
	if th != want {
		t.Fatalf("expected %+v, got %+v", want, th)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("API_PORT", "7070")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.Port != "7070" || cfg.Database.Postgres.Port != 6543 || cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if len(cfg.API.AllowedOrigins) != 2 || cfg.API.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.API.AllowedOrigins)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseThresholds(t *testing.T) {
	if got := ParseThresholds(nil); got != model.DefaultThresholds() {
		t.Fatalf("expected defaults, got %+v", got)
	}

	got := ParseThresholds(map[string]interface{}{
		"percentage":          "30.5",
		"count":               float64(-2),
		"minPoLines":          3,
		"worseningDays":       true,
		"worseningPercentage": "12",
		"unknown":             99,
	})
	want := model.Thresholds{Percentage: 30.5, Count: 0, MinPOLines: 3, WorseningDays: 0, WorseningPercentage: 12}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_ENV", "")
	if got := GetDefaultConfigPath(); got != "configs/dev/app.yaml" {
		t.Fatalf("unexpected default path %s", got)
	}

	t.Setenv("APP_ENV", "prod")
	if got := GetDefaultConfigPath(); got != "configs/prod/app.yaml" {
		t.Fatalf("unexpected env path %s", got)
	}

	t.Setenv("CONFIG_PATH", "/etc/radar.yaml")
	if got := GetDefaultConfigPath(); got != "/etc/radar.yaml" {
		t.Fatalf("unexpected explicit path %s", got)
	}
}
