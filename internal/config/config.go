package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the store analysis service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the monitoring server, used only in polling mode.
// - BaseURL: The base URL of the store API.
// - Timeout: The per-request timeout for the store API.
// - RateLimit: The maximum number of store API requests per second.
// - Carts: The date range passed to the carts endpoint.
// - Interval: The duration between analysis runs; zero runs once and exits.
// - ConcurrentFetch: Fetch the three collections concurrently instead of one after another.
// - Database: Configuration settings for the optional PostgreSQL report store.
type Config struct {
	Env             string         `mapstructure:"env"`              // Env is the current environment: local, development, production.
	Port            int            `mapstructure:"health_port"`      // Port is the monitoring server port.
	BaseURL         string         `mapstructure:"base_url"`         // BaseURL of the store API.
	Timeout         time.Duration  `mapstructure:"timeout"`          // Timeout for a single store API request.
	RateLimit       int            `mapstructure:"rate_limit"`       // RateLimit in requests per second.
	Carts           CartsConfig    `mapstructure:"carts"`            // Carts holds the carts date range.
	Interval        time.Duration  `mapstructure:"interval"`         // Interval between analysis runs.
	ConcurrentFetch bool           `mapstructure:"concurrent_fetch"` // ConcurrentFetch enables parallel collection fetches.
	Database        PostgresConfig `mapstructure:"db"`               // Database holds the postgres database configuration.
}

// CartsConfig is the date range of carts taken into account.
type CartsConfig struct {
	StartDate string `mapstructure:"start_date"` // StartDate in YYYY-MM-DD format.
	EndDate   string `mapstructure:"end_date"`   // EndDate in YYYY-MM-DD format.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"username"` // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"name"`     // Name is the name of the database.
}

// Enabled reports whether a report store is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// envKeys maps configuration keys to their environment variables.
var envKeys = map[string]string{
	"env":              "STORELENS_ENV",
	"health_port":      "STORELENS_HEALTH_PORT",
	"base_url":         "STORELENS_BASE_URL",
	"timeout":          "STORELENS_TIMEOUT",
	"rate_limit":       "STORELENS_RATE_LIMIT",
	"carts.start_date": "STORELENS_CARTS_START_DATE",
	"carts.end_date":   "STORELENS_CARTS_END_DATE",
	"interval":         "STORELENS_INTERVAL",
	"concurrent_fetch": "STORELENS_CONCURRENT_FETCH",
	"db.host":          "DB_HOST",
	"db.port":          "DB_PORT",
	"db.username":      "DB_USERNAME",
	"db.password":      "DB_PASSWORD",
	"db.name":          "DB_NAME",
}

// MustLoad loads the configuration from the environment (and a .env file, if present)
// and returns a Config struct. It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}

	interval, err := time.ParseDuration(v.GetString("interval"))
	if err != nil || interval < 0 {
		panic("failed to parse interval from configuration")
	}

	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil || timeout <= 0 {
		panic("failed to parse request timeout from configuration")
	}

	if _, err = strconv.Atoi(v.GetString("health_port")); err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	if _, err = strconv.Atoi(v.GetString("rate_limit")); err != nil {
		panic("failed to parse rate limit from configuration, must be an integer type")
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		panic("failed to parse configuration: " + firstLine(err.Error()))
	}
	cfg.Interval = interval
	cfg.Timeout = timeout

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("health_port", 8080)
	v.SetDefault("base_url", "https://fakestoreapi.com")
	v.SetDefault("timeout", "5s")
	v.SetDefault("rate_limit", 5)
	v.SetDefault("carts.start_date", "2000-01-01")
	v.SetDefault("carts.end_date", "2023-04-07")
	v.SetDefault("interval", "0s")
	v.SetDefault("concurrent_fetch", false)
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")
}

func firstLine(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return line
}
