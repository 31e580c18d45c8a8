// Package config loads service settings from config/config.yaml, then lets
// environment variables (and a local .env) override them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xavierca1/clientpulse/internal/infra/database"
	"github.com/xavierca1/clientpulse/internal/infra/integration/crm"
	"github.com/xavierca1/clientpulse/internal/infra/mail"
	"github.com/xavierca1/clientpulse/internal/logging"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL     string              `yaml:"url"`
	Pool    database.PoolConfig `yaml:"pool"`
	Migrate bool                `yaml:"migrate"`
}

type RabbitMQConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type CRMConfig struct {
	Enabled           bool                        `yaml:"enabled"`
	DefaultSystem     string                      `yaml:"default_system"`
	Retries           int                         `yaml:"activation_retries"`
	Backoff           time.Duration               `yaml:"activation_backoff"`
	Timeout           time.Duration               `yaml:"activation_timeout"`
	ReconcileInterval time.Duration               `yaml:"reconcile_interval"`
	Systems           map[string]crm.SystemConfig `yaml:"systems"`
}

type ExportConfig struct {
	FontPath string `yaml:"font_path"`
}

// PulseConfig drives the terminal dashboard.
type PulseConfig struct {
	APIURL       string        `yaml:"api_url"`
	Token        string        `yaml:"token"`
	UseMockAPI   string        `yaml:"use_mock_api"`
	PollInterval time.Duration `yaml:"poll_interval"`
	ExportDir    string        `yaml:"export_dir"`
}

// MockAPI reports whether the dashboard should use the in-process mock
// creator: unset or "true" selects it.
func (p PulseConfig) MockAPI() bool {
	v := strings.TrimSpace(p.UseMockAPI)
	return v == "" || strings.EqualFold(v, "true")
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Log      logging.Config `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Mail     mail.Config    `yaml:"mail"`
	CRM      CRMConfig      `yaml:"crm"`
	Export   ExportConfig   `yaml:"export"`
	Pulse    PulseConfig    `yaml:"pulse"`
}

// Load reads path (a missing file is fine), applies env overrides and
// fills defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path == "" {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	str("DATABASE_URL", &c.Database.URL)
	str("RABBITMQ_URL", &c.RabbitMQ.URL)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("MAIL_HOST", &c.Mail.Host)
	str("MAIL_USER", &c.Mail.User)
	str("MAIL_PASS", &c.Mail.Password)
	str("MAIL_FROM", &c.Mail.From)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("CRM_DEFAULT_SYSTEM", &c.CRM.DefaultSystem)
	str("PULSE_API_URL", &c.Pulse.APIURL)
	str("PULSE_API_TOKEN", &c.Pulse.Token)
	str("PULSE_USE_MOCK_API", &c.Pulse.UseMockAPI)
	str("PULSE_EXPORT_DIR", &c.Pulse.ExportDir)

	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("MAIL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAIL_PORT %q: %w", v, err)
		}
		c.Mail.Port = port
	}
	if v, ok := lookup("CRM_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CRM_ENABLED %q: %w", v, err)
		}
		c.CRM.Enabled = enabled
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.CRM.DefaultSystem == "" {
		c.CRM.DefaultSystem = "hubspot"
	}
	if c.CRM.Retries <= 0 {
		c.CRM.Retries = 3
	}
	if c.CRM.Backoff <= 0 {
		c.CRM.Backoff = 2 * time.Second
	}
	if c.CRM.Timeout <= 0 {
		c.CRM.Timeout = 15 * time.Minute
	}
	if c.CRM.ReconcileInterval <= 0 {
		c.CRM.ReconcileInterval = time.Minute
	}
	if c.Pulse.APIURL == "" {
		c.Pulse.APIURL = "http://localhost:8080"
	}
	if c.Pulse.PollInterval <= 0 {
		c.Pulse.PollInterval = 10 * time.Second
	}
}

// ValidateAPI checks what the API server cannot start without.
func (c *Config) ValidateAPI() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.RabbitMQ.URL == "" {
		missing = append(missing, "RABBITMQ_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
