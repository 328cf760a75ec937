package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"IdeaScanner/internal/domain"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "IDEASCANNER_CONFIG"
	databaseDriver   = "DATABASE_DRIVER"
	databaseDSNEnv   = "DATABASE_DSN"
	mockModeEnv      = "MOCK_MODE"
	workflowModeEnv  = "WORKFLOW_MODE"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	redditAgentEnv   = "REDDIT_USER_AGENT"
	resendAPIKeyEnv  = "RESEND_API_KEY"
	resendFromEnv    = "RESEND_FROM_EMAIL"
	redisAddrEnv     = "REDIS_ADDR"
	temporalAddrEnv  = "TEMPORAL_ADDRESS"
	temporalNSEnv    = "TEMPORAL_NAMESPACE"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	httpAddrEnv      = "HTTP_ADDR"
	logLevelEnv      = "LOG_LEVEL"
)

// Workflow substrates.
const (
	WorkflowLocal    = "local"
	WorkflowTemporal = "temporal"
)

// Config holds high-level settings required across the application.
type Config struct {
	Mode          ModeConfig         `yaml:"mode"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Source        SourceConfig       `yaml:"source"`
	Mock          MockConfig         `yaml:"mock"`
	OpenAI        OpenAIConfig       `yaml:"openai"`
	Email         EmailConfig        `yaml:"email"`
	Notifications NotificationConfig `yaml:"notifications"`
	Redis         RedisConfig        `yaml:"redis"`
	Temporal      TemporalConfig     `yaml:"temporal"`
	HTTP          HTTPConfig         `yaml:"http"`
	Tracing       TracingConfig      `yaml:"tracing"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ModeConfig picks the strategy variants once at process start.
type ModeConfig struct {
	Mock     bool   `yaml:"mock"`
	Workflow string `yaml:"workflow"`
}

// DatabaseConfig selects the row store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when the pipeline runs without an explicit trigger.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	DefaultTopic   string         `yaml:"defaultTopic"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SourceConfig describes the upstream listing endpoints and the cache policy.
type SourceConfig struct {
	BaseURL           string   `yaml:"baseUrl"`
	UserAgent         string   `yaml:"userAgent"`
	Variants          []string `yaml:"variants"`
	CacheTTL          string   `yaml:"cacheTtl"`
	StaleLimit        int      `yaml:"staleLimit"`
	ListingLimit      int      `yaml:"listingLimit"`
	RequestsPerMinute int      `yaml:"requestsPerMinute"`
	Timeout           string   `yaml:"timeout"`

	cacheTTL time.Duration
	timeout  time.Duration
}

// TTL returns the parsed cache freshness window.
func (s SourceConfig) TTL() time.Duration {
	if s.cacheTTL > 0 {
		return s.cacheTTL
	}
	return 12 * time.Hour
}

// RequestTimeout returns the parsed upstream HTTP timeout.
func (s SourceConfig) RequestTimeout() time.Duration {
	if s.timeout > 0 {
		return s.timeout
	}
	return 15 * time.Second
}

// MockConfig points the mock source at a local JSON file.
type MockConfig struct {
	ItemsFile string `yaml:"itemsFile"`
}

// OpenAIConfig defines how to contact a chat-completions API.
type OpenAIConfig struct {
	Endpoint            string  `yaml:"endpoint"`
	Model               string  `yaml:"model"`
	APIKey              string  `yaml:"apiKey"`
	AnalyzeTemperature  float64 `yaml:"analyzeTemperature"`
	GenerateTemperature float64 `yaml:"generateTemperature"`
}

// EmailConfig wires the transactional email provider.
type EmailConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	From     string `yaml:"from"`
}

// NotificationConfig groups subscriber digests and operator reports.
type NotificationConfig struct {
	Concurrency int            `yaml:"concurrency"`
	Digest      DigestConfig   `yaml:"digest"`
	Telegram    TelegramConfig `yaml:"telegram"`
}

// DigestConfig schedules the interval digest. An empty cron disables it.
type DigestConfig struct {
	CronExpression string `yaml:"cronExpression"`
	IntervalHours  int    `yaml:"intervalHours"`
}

// TelegramConfig wires all data required to send run reports.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// RedisConfig enables the hot item cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// TemporalConfig is used when mode.workflow is "temporal".
type TemporalConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"taskQueue"`
}

// HTTPConfig configures the trigger/status API.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// TracingConfig selects an OpenTelemetry exporter: none, stdout or otlp.
type TracingConfig struct {
	Exporter    string `yaml:"exporter"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"serviceName"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present), applies environment overrides and validates the result.
func Load() (Config, error) {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit path; an empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Database.Driver, databaseDriver)
	setString(&c.Database.DSN, databaseDSNEnv)
	setString(&c.Mode.Workflow, workflowModeEnv)
	setString(&c.OpenAI.APIKey, openAIAPIKeyEnv)
	setString(&c.OpenAI.Model, openAIModelEnv)
	setString(&c.Source.UserAgent, redditAgentEnv)
	setString(&c.Email.APIKey, resendAPIKeyEnv)
	setString(&c.Email.From, resendFromEnv)
	setString(&c.Redis.Addr, redisAddrEnv)
	setString(&c.Temporal.Address, temporalAddrEnv)
	setString(&c.Temporal.Namespace, temporalNSEnv)
	setString(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Notifications.Telegram.ChatID, telegramChatEnv)
	setString(&c.HTTP.Addr, httpAddrEnv)
	setString(&c.Logging.Level, logLevelEnv)

	if v := os.Getenv(mockModeEnv); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Mode.Mock = b
		}
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

// Validate checks the configuration once. Callers treat any error as fatal.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode.Workflow {
	case WorkflowLocal:
	case WorkflowTemporal:
		if c.Temporal.Address == "" {
			errs = append(errs, errors.New("temporal.address is required when mode.workflow is temporal"))
		}
		if c.Temporal.TaskQueue == "" {
			errs = append(errs, errors.New("temporal.taskQueue is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("mode.workflow %q is not one of local, temporal", c.Mode.Workflow))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of sqlite, postgres", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	if !c.Mode.Mock {
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai.apiKey is required outside mock mode"))
		}
		if c.Email.APIKey == "" {
			errs = append(errs, errors.New("email.apiKey is required outside mock mode"))
		}
		if c.Source.UserAgent == "" {
			errs = append(errs, errors.New("source.userAgent is required outside mock mode"))
		}
	}
	if len(c.Source.Variants) == 0 {
		errs = append(errs, errors.New("source.variants must list at least one endpoint variant"))
	}
	if c.Source.StaleLimit <= 0 {
		errs = append(errs, errors.New("source.staleLimit must be positive"))
	}

	if ttl, err := time.ParseDuration(c.Source.CacheTTL); err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("source.cacheTtl %q is not a positive duration", c.Source.CacheTTL))
	} else {
		c.Source.cacheTTL = ttl
	}
	if d, err := time.ParseDuration(c.Source.Timeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("source.timeout %q is not a positive duration", c.Source.Timeout))
	} else {
		c.Source.timeout = d
	}

	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("scheduler.timezone %q: %w", tz, err))
	} else {
		c.Scheduler.location = loc
	}
	c.Scheduler.DefaultTopic = domain.NormalizeTopic(c.Scheduler.DefaultTopic)

	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	case "otlp":
		if c.Tracing.Endpoint == "" {
			errs = append(errs, errors.New("tracing.endpoint is required for the otlp exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q is not one of none, stdout, otlp", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// DefaultDataPath returns a file under the user's XDG data directory.
func DefaultDataPath(name string) string {
	return filepath.Join(xdg.DataHome, "ideascanner", name)
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Mode:     ModeConfig{Mock: true, Workflow: WorkflowLocal},
		Database: DatabaseConfig{Driver: "sqlite", DSN: DefaultDataPath("ideascanner.db")},
		Scheduler: SchedulerConfig{
			CronExpression: "0 */6 * * *",
			Timezone:       defaultTimezone,
			DefaultTopic:   domain.DefaultTopic,
			location:       tz,
		},
		Source: SourceConfig{
			BaseURL:           "https://www.reddit.com",
			UserAgent:         "IdeaScanner/1.0",
			Variants:          []string{"rising", "hot", "new", "atom"},
			CacheTTL:          "12h",
			StaleLimit:        50,
			ListingLimit:      25,
			RequestsPerMinute: 10,
			Timeout:           "15s",
		},
		Mock: MockConfig{ItemsFile: DefaultDataPath("mock-items.json")},
		OpenAI: OpenAIConfig{
			Endpoint:            "https://api.openai.com/v1/chat/completions",
			Model:               "gpt-4o-mini",
			AnalyzeTemperature:  0.7,
			GenerateTemperature: 0.8,
		},
		Email: EmailConfig{
			Endpoint: "https://api.resend.com/emails",
			From:     "IdeaScanner <onboarding@resend.dev>",
		},
		Notifications: NotificationConfig{
			Concurrency: 8,
			Digest:      DigestConfig{IntervalHours: 24},
		},
		Redis:    RedisConfig{Prefix: "ideascanner:items:"},
		Temporal: TemporalConfig{Namespace: "default", TaskQueue: "ideascanner"},
		HTTP:     HTTPConfig{Addr: ":8080", AllowedOrigins: []string{"*"}},
		Tracing:  TracingConfig{Exporter: "none", ServiceName: "ideascanner"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}
