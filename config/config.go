// Package config loads application configuration from a YAML file and
// environment variables. Priority: ENV > YAML > defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// StorageConfig holds Azure Table Storage settings. Table names default to
// the standard layout and rarely need overriding outside tests.
type StorageConfig struct {
	ConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	CompaniesTable   string `yaml:"companies_table"   env:"COMPANIES_TABLE"          env-default:"companies"`
	CapturesTable    string `yaml:"captures_table"    env:"CAPTURES_TABLE"           env-default:"quickcapture"`
	ScheduleTable    string `yaml:"schedule_table"    env:"SCHEDULE_TABLE"           env-default:"weeklyschedule"`
	WaitingTable     string `yaml:"waiting_table"     env:"WAITING_TABLE"            env-default:"waitinglist"`
	SomedayTable     string `yaml:"someday_table"     env:"SOMEDAY_TABLE"            env-default:"somedaylist"`
	TimeTable        string `yaml:"time_table"        env:"TIME_TABLE"               env-default:"timetracker"`
	SettingsTable    string `yaml:"settings_table"    env:"SETTINGS_TABLE"           env-default:"settings"`
	NotifyQueue      string `yaml:"notify_queue"      env:"NOTIFY_QUEUE"             env-default:"notifications"`
}

// RedisConfig holds cache settings. An empty connection string disables
// caching and request deduplication.
type RedisConfig struct {
	ConnectionString string        `yaml:"connection_string" env:"REDIS_CONNECTION_STRING"`
	CacheTTL         time.Duration `yaml:"cache_ttl"         env:"REDIS_CACHE_TTL"  env-default:"5m"`
	DeduperTTL       time.Duration `yaml:"deduper_ttl"       env:"DEDUPER_TTL"      env-default:"24h"`
}

// AuthConfig holds bearer-token validation settings. TestMode skips
// validation entirely and is only for local development.
type AuthConfig struct {
	TestMode   bool   `yaml:"test_mode"   env:"AUTH_TEST_MODE" env-default:"false"`
	TestSecret string `yaml:"test_secret" env:"AUTH_TEST_SECRET"`
	Domain     string `yaml:"domain"      env:"AUTH_DOMAIN"`
	Audience   string `yaml:"audience"    env:"AUTH_AUDIENCE"`
}

// NotifyConfig holds reminder delivery settings.
type NotifyConfig struct {
	OwnerEmail      string `yaml:"owner_email"       env:"NOTIFY_OWNER_EMAIL"`
	DashboardURL    string `yaml:"dashboard_url"     env:"NOTIFY_DASHBOARD_URL"`
	WeeklyReviewDay string `yaml:"weekly_review_day" env:"NOTIFY_WEEKLY_REVIEW_DAY" env-default:"Sunday"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// JWKSURL returns the JSON Web Key Set endpoint of the configured domain.
func (a AuthConfig) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", a.Domain)
}

// Issuer returns the expected token issuer of the configured domain.
func (a AuthConfig) Issuer() string {
	return "https://" + a.Domain + "/"
}

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}
	if c.Auth.TestMode {
		if c.Auth.TestSecret == "" {
			return fmt.Errorf("auth.test_secret is required when auth.test_mode is set")
		}
	} else if c.Auth.Domain == "" || c.Auth.Audience == "" {
		return fmt.Errorf("auth.domain and auth.audience are required unless auth.test_mode is set")
	}
	if c.Redis.CacheTTL < 0 {
		return fmt.Errorf("redis.cache_ttl must not be negative (got %v)", c.Redis.CacheTTL)
	}
	if c.Redis.DeduperTTL <= 0 {
		return fmt.Errorf("redis.deduper_ttl must be > 0 (got %v)", c.Redis.DeduperTTL)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}
