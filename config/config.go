package config

import (
	"fmt"
	"strings"

	"fdeconsole/models"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Store      StoreConfig      `mapstructure:"store"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Slack      SlackConfig      `mapstructure:"slack"`
	Email      EmailConfig      `mapstructure:"email"`
	GitHub     GitHubConfig     `mapstructure:"github"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Features   Features         `mapstructure:"features"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	PublicURL string `mapstructure:"public_url"` // base for links in alerts
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"` // memory, postgres, redis
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SlackConfig struct {
	WebhookURL string  `mapstructure:"webhook_url"`
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
}

type EmailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	AlertEmail     string `mapstructure:"alert_email"`
}

type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	Owner   string `mapstructure:"owner"`
	Repo    string `mapstructure:"repo"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type AuthConfig struct {
	JWTSecret         string `mapstructure:"jwt_secret"`
	AdminEmail        string `mapstructure:"admin_email"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
	TokenTTLHours     int    `mapstructure:"token_ttl_hours"`
}

type SimulationConfig struct {
	IntervalMs       int             `mapstructure:"interval_ms"`
	AutoStart        bool            `mapstructure:"auto_start"`
	MonitorEntity    string          `mapstructure:"monitor_entity"`
	MonitorIntervalS int             `mapstructure:"monitor_interval_s"`
	Entities         []models.Entity `mapstructure:"entities"`
}

// classic env names kept working next to the FDE_ prefixed ones
var envAliases = map[string]string{
	"server.port":               "PORT",
	"server.public_url":         "PUBLIC_URL",
	"database.url":              "DATABASE_URL",
	"redis.addr":                "REDIS_ADDR",
	"slack.webhook_url":         "SLACK_WEBHOOK_URL",
	"email.sendgrid_api_key":    "SENDGRID_API_KEY",
	"email.alert_email":         "ALERT_EMAIL",
	"github.token":              "GITHUB_TOKEN",
	"openai.api_key":            "OPENAI_API_KEY",
	"openai.model":              "OPENAI_MODEL",
	"auth.jwt_secret":           "JWT_SECRET",
	"features.auth_enabled":     "AUTH_ENABLED",
	"features.copilot_llm":      "COPILOT_LLM_ENABLED",
	"features.monitor_watching": "MONITOR_WATCH_ENABLED",
}

// Load reads an optional YAML file then environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		_ = v.ReadInConfig()
	}

	v.SetEnvPrefix("FDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "FDE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.Simulation.Entities) == 0 {
		cfg.Simulation.Entities = DefaultEntities()
	}
	return &cfg, nil
}

func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.Simulation.Entities = DefaultEntities()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.public_url", "http://localhost:8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("slack.rate_per_sec", 1.0)
	v.SetDefault("slack.burst", 5)

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("auth.token_ttl_hours", 24)

	v.SetDefault("simulation.interval_ms", 2000)
	v.SetDefault("simulation.auto_start", false)
	v.SetDefault("simulation.monitor_interval_s", 30)

	v.SetDefault("features.auth_enabled", false)
	v.SetDefault("features.copilot_llm", false)
	v.SetDefault("features.monitor_watching", false)
}

// DefaultEntities is the demo deployment catalog used when none is configured.
func DefaultEntities() []models.Entity {
	return []models.Entity{
		{ID: "acme-salesforce", Name: "Acme / Salesforce sync", Health: models.HealthHealthy},
		{ID: "globex-netsuite", Name: "Globex / NetSuite ledger", Health: models.HealthNoisy},
		{ID: "initech-hubspot", Name: "Initech / HubSpot webhooks", Health: models.HealthDegraded},
		{ID: "umbrella-sap", Name: "Umbrella / SAP orders", Health: models.HealthHealthy},
	}
}
