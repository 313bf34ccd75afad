package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Address           string     `mapstructure:"address"`
	CatalogPath       string     `mapstructure:"catalog_path"`
	TelemetryURL      string     `mapstructure:"telemetry_url"`
	TelemetryInsecure bool       `mapstructure:"telemetry_insecure"`
	MaxBodyBytes      int64      `mapstructure:"max_body_bytes"`
	Log               Log        `mapstructure:"log"`
	Provider          Provider   `mapstructure:"provider"`
	Database          Database   `mapstructure:"database"`
	Guardrails        Guardrails `mapstructure:"guardrails"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Provider selects the single LLM backend served by this instance.
type Provider struct {
	Name    string `mapstructure:"name"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// RequiresKey reports whether the provider needs a credential.
func (p Provider) RequiresKey() bool {
	switch p.Name {
	case "echo", "ollama":
		return false
	}
	return true
}

// Configured reports whether every required setting is present.
func (p Provider) Configured() bool {
	return p.Name != "" && (!p.RequiresKey() || p.APIKey != "")
}

type Database struct {
	DSN     string `mapstructure:"dsn"`
	Migrate bool   `mapstructure:"migrate"`
}

type Guardrails struct {
	BannedTerms []string `mapstructure:"banned_terms"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("address", ":8080")
	v.SetDefault("catalog_path", "")
	v.SetDefault("telemetry_url", "")
	v.SetDefault("telemetry_insecure", false)
	v.SetDefault("max_body_bytes", 8<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("provider.name", "gemini")
	v.SetDefault("provider.model", "gemini-2.0-flash")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.migrate", true)
	v.SetDefault("guardrails.banned_terms", []string{})
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	defaults(v)

	// allow environment variables like AIGW_ADDRESS or AIGW_PROVIDER_NAME
	v.SetEnvPrefix("AIGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("provider.api_key", "AIGW_PROVIDER_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// don't fail if config file is missing, allow env-only config
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
