// Package config loads the engine configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Adapter selects which database driver backs the sales store.
type Adapter string

const (
	AdapterPGX  Adapter = "pgx"
	AdapterSQL  Adapter = "sql"
	AdapterSQLX Adapter = "sqlx"
)

// Config holds all engine settings. Zero-config startup works against a
// local Postgres with the defaults below.
type Config struct {
	// Database.
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string
	DatabaseURL string // overrides the individual DB_* fields when set
	DBAdapter   Adapter

	// Simulation.
	EnableSimulation    bool
	SimulationInterval  time.Duration
	SalesPerMinuteMin   int
	SalesPerMinuteMax   int
	MorningMultiplier   float64
	AfternoonMultiplier float64
	EveningMultiplier   float64
	NightMultiplier     float64
	WeekendMultiplier   float64
	WeekendDays         []time.Weekday
	CustomerAttachRate  float64
	TaxRate             float64

	// Background job intervals.
	AggregateInterval time.Duration
	ReplenishInterval time.Duration
	ReloadInterval    time.Duration
	ReplenishAmount   int

	// Stats cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration
}

// Load reads the configuration from the environment, falling back to
// defaults for anything unset or unparseable.
func Load() Config {
	return Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnvInt("DB_PORT", 5432),
		DBName:      getEnv("DB_NAME", "sales_analytics_erp"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBAdapter:   parseAdapter(getEnv("DB_ADAPTER", string(AdapterPGX))),

		EnableSimulation:    getEnvBool("ENABLE_SIMULATION", true),
		SimulationInterval:  time.Duration(getEnvInt("SIMULATION_INTERVAL_SECONDS", 60)) * time.Second,
		SalesPerMinuteMin:   getEnvInt("SALES_PER_MINUTE_MIN", 1),
		SalesPerMinuteMax:   getEnvInt("SALES_PER_MINUTE_MAX", 5),
		MorningMultiplier:   getEnvFloat("MORNING_MULTIPLIER", 1.2),
		AfternoonMultiplier: getEnvFloat("AFTERNOON_MULTIPLIER", 1.5),
		EveningMultiplier:   getEnvFloat("EVENING_MULTIPLIER", 2.0),
		NightMultiplier:     getEnvFloat("NIGHT_MULTIPLIER", 0.5),
		WeekendMultiplier:   getEnvFloat("WEEKEND_MULTIPLIER", 1.5),
		WeekendDays:         parseWeekdays(getEnv("WEEKEND_DAYS", "5,6")),
		CustomerAttachRate:  getEnvFloat("CUSTOMER_ATTACH_RATE", 0.6),
		TaxRate:             getEnvFloat("TAX_RATE", 0.17),

		AggregateInterval: time.Duration(getEnvInt("AGGREGATE_INTERVAL_MINUTES", 5)) * time.Minute,
		ReplenishInterval: time.Duration(getEnvInt("REPLENISH_INTERVAL_MINUTES", 30)) * time.Minute,
		ReloadInterval:    time.Duration(getEnvInt("RELOAD_INTERVAL_MINUTES", 10)) * time.Minute,
		ReplenishAmount:   getEnvInt("REPLENISH_AMOUNT", 100),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		StatsCacheTTL: time.Duration(getEnvInt("STATS_CACHE_TTL_SECONDS", 120)) * time.Second,
	}
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	// url.URL escapes credentials, so passwords with reserved
	// characters still produce a parseable DSN.
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   c.DBName,
	}

	return u.String()
}

// Summary returns a loggable description of the database target with
// the password masked.
func (c Config) Summary() string {
	password := "NOT SET"
	if c.DBPassword != "" {
		password = strings.Repeat("*", len(c.DBPassword))
	}

	return fmt.Sprintf("host=%s port=%d db=%s user=%s password=%s adapter=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, password, c.DBAdapter)
}

func parseAdapter(raw string) Adapter {
	switch Adapter(strings.ToLower(strings.TrimSpace(raw))) {
	case AdapterSQL:
		return AdapterSQL
	case AdapterSQLX:
		return AdapterSQLX
	default:
		return AdapterPGX
	}
}

// parseWeekdays parses a comma-separated list of weekday indices
// (0=Sunday ... 6=Saturday). Invalid entries are dropped.
func parseWeekdays(raw string) []time.Weekday {
	var days []time.Weekday

	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}

	if len(days) == 0 {
		days = []time.Weekday{time.Friday, time.Saturday}
	}

	return days
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true") || val == "1"
}
