package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("AIGW_ADDRESS", ":9999")
	t.Setenv("AIGW_PROVIDER_NAME", "echo")
	t.Setenv("AIGW_DATABASE_MIGRATE", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Address != ":9999" {
		t.Fatalf("expected :9999 got %s", cfg.Address)
	}
	if cfg.Provider.Name != "echo" {
		t.Fatalf("expected echo provider got %s", cfg.Provider.Name)
	}
	if cfg.Database.Migrate {
		t.Fatalf("expected migrate disabled")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Address != ":8080" {
		t.Fatalf("expected :8080 got %s", cfg.Address)
	}
	if cfg.Provider.Name != "gemini" || cfg.Provider.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected provider defaults %+v", cfg.Provider)
	}
	if cfg.MaxBodyBytes != 8<<20 {
		t.Fatalf("unexpected max body %d", cfg.MaxBodyBytes)
	}
}

func TestLoadAPIKeyFallback(t *testing.T) {
	t.Setenv("AIGW_PROVIDER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "from-gemini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Provider.APIKey != "from-gemini" {
		t.Fatalf("expected key from GEMINI_API_KEY got %q", cfg.Provider.APIKey)
	}

	t.Setenv("AIGW_PROVIDER_API_KEY", "primary")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Provider.APIKey != "primary" {
		t.Fatalf("expected AIGW_PROVIDER_API_KEY to win got %q", cfg.Provider.APIKey)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte("address: \":7000\"\nprovider:\n  name: openai\n  model: gpt-4o-mini\nguardrails:\n  banned_terms: [\"secret\", \"password\"]\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o600); err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Address != ":7000" || cfg.Provider.Name != "openai" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.Guardrails.BannedTerms) != 2 {
		t.Fatalf("expected 2 banned terms got %v", cfg.Guardrails.BannedTerms)
	}
}

func TestProviderConfigured(t *testing.T) {
	tests := []struct {
		p    Provider
		want bool
	}{
		{Provider{Name: "gemini"}, false},
		{Provider{Name: "gemini", APIKey: "k"}, true},
		{Provider{Name: "echo"}, true},
		{Provider{Name: "ollama"}, true},
		{Provider{}, false},
	}
	for _, tt := range tests {
		if got := tt.p.Configured(); got != tt.want {
			t.Errorf("%+v: Configured() = %v, want %v", tt.p, got, tt.want)
		}
	}
}
