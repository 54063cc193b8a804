package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

type Config struct {
	Database   DatabaseConfig
	Storage    StorageConfig
	JWT        JWTConfig
	App        AppConfig
	Payroll    PayrollConfig
	Escalation EscalationConfig
	Leave      LeaveConfig
	Calendar   CalendarConfig
	SMTP       SMTPConfig
	Cron       CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type PayrollConfig struct {
	// LateGraceDays is the number of late days per period that carry no deduction.
	LateGraceDays int
}

type EscalationConfig struct {
	Level1SLA time.Duration
	Level2SLA time.Duration
	Level3SLA time.Duration
}

// LeaveConfig holds the submission rules per leave type name. A type left out
// of a map is not limited by that rule.
type LeaveConfig struct {
	NoticeDays         map[string]int
	MaxConsecutiveDays map[string]int
}

type CalendarConfig struct {
	DefaultCountryCode   string
	DefaultWeekend       []time.Weekday
	HolidaySourceURL     string
	HolidaySourceTimeout time.Duration
}

// SMTPConfig configures escalation notices. TLS dials with implicit TLS and
// StartTLS upgrades a plain connection; with neither the relay is spoken to in
// plaintext. Mailboxes maps an approver role (manager, hr, director) to the
// address that receives its notices.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	FromName  string
	TLS       bool
	StartTLS  bool
	Mailboxes map[string]string
}

type CronConfig struct {
	EscalationSweepInterval time.Duration
	HolidayRefreshInterval  time.Duration
	AuditVerifyInterval     time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll_compliance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.Storage = StorageConfig{
		Driver:     getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		SQLitePath: getEnv("SQLITE_PATH", "./data/payroll.db"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	graceDays, err := strconv.Atoi(getEnv("PAYROLL_LATE_GRACE_DAYS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_LATE_GRACE_DAYS: %w", err)
	}
	config.Payroll = PayrollConfig{LateGraceDays: graceDays}

	if config.Escalation.Level1SLA, err = getEnvDuration("ESCALATION_SLA_LEVEL_1", "48h"); err != nil {
		return nil, err
	}
	if config.Escalation.Level2SLA, err = getEnvDuration("ESCALATION_SLA_LEVEL_2", "24h"); err != nil {
		return nil, err
	}
	if config.Escalation.Level3SLA, err = getEnvDuration("ESCALATION_SLA_LEVEL_3", "24h"); err != nil {
		return nil, err
	}

	if config.Leave.NoticeDays, err = getEnvIntMap("LEAVE_NOTICE_DAYS", "paid=7,casual=3,unpaid=3,comp_off=3"); err != nil {
		return nil, err
	}
	if config.Leave.MaxConsecutiveDays, err = getEnvIntMap("LEAVE_MAX_CONSECUTIVE_DAYS", "paid=10,sick=5,casual=3,unpaid=10,comp_off=10"); err != nil {
		return nil, err
	}

	weekend, err := parseWeekdays(getEnv("CALENDAR_WEEKEND_DAYS", "saturday,sunday"))
	if err != nil {
		return nil, err
	}
	holidayTimeout, err := getEnvDuration("HOLIDAY_SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	config.Calendar = CalendarConfig{
		DefaultCountryCode:   strings.ToUpper(getEnv("CALENDAR_DEFAULT_COUNTRY", "IN")),
		DefaultWeekend:       weekend,
		HolidaySourceURL:     getEnv("HOLIDAY_SOURCE_URL", "https://date.nager.at"),
		HolidaySourceTimeout: holidayTimeout,
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@localhost"),
		FromName: getEnv("SMTP_FROM_NAME", "Payroll Compliance"),
		TLS:      getEnv("SMTP_TLS", "false") == "true",
		StartTLS: getEnv("SMTP_STARTTLS", "false") == "true",
		Mailboxes: map[string]string{
			"manager":  getEnv("ESCALATION_MAILBOX_MANAGER", ""),
			"hr":       getEnv("ESCALATION_MAILBOX_HR", ""),
			"director": getEnv("ESCALATION_MAILBOX_DIRECTOR", ""),
		},
	}

	if config.Cron.EscalationSweepInterval, err = getEnvDuration("CRON_ESCALATION_SWEEP_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if config.Cron.HolidayRefreshInterval, err = getEnvDuration("CRON_HOLIDAY_REFRESH_INTERVAL", "24h"); err != nil {
		return nil, err
	}
	if config.Cron.AuditVerifyInterval, err = getEnvDuration("CRON_AUDIT_VERIFY_INTERVAL", "24h"); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			return errors.New("DB_PASSWORD is required")
		}
	case StorageDriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverSQLite)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if c.Payroll.LateGraceDays < 0 {
		return errors.New("PAYROLL_LATE_GRACE_DAYS must not be negative")
	}
	if c.Escalation.Level1SLA <= 0 || c.Escalation.Level2SLA <= 0 || c.Escalation.Level3SLA <= 0 {
		return errors.New("escalation SLAs must be positive")
	}
	if c.Cron.EscalationSweepInterval <= 0 || c.Cron.HolidayRefreshInterval <= 0 || c.Cron.AuditVerifyInterval <= 0 {
		return errors.New("cron intervals must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnvIntMap parses "key=value,key=value" with non-negative integer values.
// An empty variable falls back; "none" disables every entry.
func getEnvIntMap(key, fallback string) (map[string]int, error) {
	value := getEnv(key, fallback)
	result := make(map[string]int)
	if strings.EqualFold(strings.TrimSpace(value), "none") {
		return result, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid %s entry %q", key, part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s entry %q", key, part)
		}
		result[strings.ToLower(strings.TrimSpace(name))] = n
	}
	return result, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(value string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("invalid CALENDAR_WEEKEND_DAYS entry %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}
