package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// BotConfig carries the user-facing texts of the /start greeting.
type BotConfig struct {
	Greeting     string `yaml:"greeting" envconfig:"BOT_GREETING"`
	ContactLabel string `yaml:"contact_label" envconfig:"BOT_CONTACT_LABEL"`
	ContactURL   string `yaml:"contact_url" envconfig:"BOT_CONTACT_URL"`
}

// SessionConfig controls how long an unfinished conversation is kept.
type SessionConfig struct {
	// TTLMinutes of 0 selects the default; negative keeps sessions until completion.
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// DatabaseConfig holds Postgres settings for the audit trail. An empty Host disables it.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// Enabled reports whether a database was configured.
func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// HealthConfig configures the optional HTTP health endpoint.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// StatsConfig configures the periodic runtime stats report.
type StatsConfig struct {
	// IntervalMinutes of 0 selects the default; negative disables the report.
	IntervalMinutes int `yaml:"interval_minutes" envconfig:"STATS_INTERVAL_MINUTES"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	DefaultGreeting        = "Hello, I'm Perfect Bot\nCreated By @nkmods"
	DefaultContactLabel    = "Contact Admin"
	DefaultContactURL      = "https://t.me/nkmods"
	DefaultSessionTTL      = 30
	DefaultStatsInterval   = 15
	DefaultMigrationsDir   = "migrations"
	defaultDBPort          = "5432"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConnection = 4
)

// ErrNoAdmin is returned when the administrator id is missing.
var ErrNoAdmin = errors.New("admin id is required (ADMIN_ID)")

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Bot       BotConfig       `yaml:"bot"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Health    HealthConfig    `yaml:"health"`
	Stats     StatsConfig     `yaml:"stats"`
}

// Load builds a Config from the YAML file at path, if there is one, with
// environment variables taking precedence. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readYAML(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Normalize validates cfg in place and fills defaults. Each section is
// checked in turn and the first problem is returned.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	for _, step := range []func(*Config) error{
		checkCredentials,
		normalizeRunMode,
		normalizeRateLimit,
		normalizeDatabase,
	} {
		if err := step(cfg); err != nil {
			return err
		}
	}
	fillDefaults(cfg)
	return nil
}

func checkCredentials(cfg *Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("config: telegram token is required (BOT_TOKEN)")
	}
	if cfg.Telegram.AdminID == 0 {
		return ErrNoAdmin
	}
	return nil
}

func normalizeRunMode(cfg *Config) error {
	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if mode == "" || mode == "polling" {
		mode = RunModeLongpoll
	}
	switch mode {
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("config: telegram.longpoll_timeout_seconds must be >= 0")
		}
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" || cfg.Webhook.Port <= 0 {
			return errors.New("config: webhook mode needs webhook.url and a positive webhook.port")
		}
	default:
		return fmt.Errorf("config: unknown telegram.run_mode %q (want webhook or longpoll)", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = mode
	return nil
}

func normalizeRateLimit(cfg *Config) error {
	for i, raw := range cfg.RateLimit.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(raw))
		switch kind {
		case "":
		case UpdateCallback, UpdateMessage:
			cfg.RateLimit.ExcludeUpdates[i] = kind
		default:
			return fmt.Errorf("config: rate_limit.exclude_updates: unknown update kind %q", raw)
		}
	}
	return nil
}

func normalizeDatabase(cfg *Config) error {
	db := &cfg.Database
	if !db.Enabled() {
		return nil
	}
	if strings.TrimSpace(db.Name) == "" {
		return errors.New("config: database.name is required when database.host is set")
	}
	setDefault(&db.Port, defaultDBPort)
	setDefault(&db.SSLMode, defaultDBSSLMode)
	setDefault(&db.MigrationsDir, DefaultMigrationsDir)
	if db.MaxConnections <= 0 {
		db.MaxConnections = defaultDBMaxConnection
	}
	return nil
}

func fillDefaults(cfg *Config) {
	setDefault(&cfg.Bot.Greeting, DefaultGreeting)
	setDefault(&cfg.Bot.ContactLabel, DefaultContactLabel)
	setDefault(&cfg.Bot.ContactURL, DefaultContactURL)
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = DefaultSessionTTL
	}
	if cfg.Stats.IntervalMinutes == 0 {
		cfg.Stats.IntervalMinutes = DefaultStatsInterval
	}
}

func setDefault(field *string, def string) {
	if *field == "" {
		*field = def
	}
}
