package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Payroll  PayrollConfig
	Overtime OvertimeConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port            int
	Env             string
	LogLevel        string
	RunMigrations   bool
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type PayrollConfig struct {
	Workers               int
	BracketsFile          string
	StaleCalculationAfter time.Duration
	Multipliers           MultiplierConfig
}

// MultiplierConfig holds the premium applied to each overtime bucket's hourly rate.
type MultiplierConfig struct {
	Hours41To46  decimal.Decimal
	HoursAbove46 decimal.Decimal
	Saturday     decimal.Decimal
	Sunday       decimal.Decimal
	Night        decimal.Decimal
	Holiday      decimal.Decimal
}

type OvertimeConfig struct {
	WeeklyThreshold time.Duration
	SecondThreshold time.Duration
	// Offsets from local midnight; NightStart > NightEnd wraps past midnight.
	NightStart time.Duration
	NightEnd   time.Duration
}

type CronConfig struct {
	Enabled          bool
	StaleRunInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, reading process environment", "error", err)
	}

	config := &Config{}
	var err error

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := getEnvInt32("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt32("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: maxConns,
		MinConns: minConns,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	runMigrations, err := strconv.ParseBool(getEnv("APP_RUN_MIGRATIONS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_RUN_MIGRATIONS: %w", err)
	}
	shutdownTimeout, err := getEnvDuration("APP_SHUTDOWN_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:            appPort,
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RunMigrations:   runMigrations,
		AllowedOrigins:  getEnvSlice("APP_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ShutdownTimeout: shutdownTimeout,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Payroll configuration
	workers, err := strconv.Atoi(getEnv("PAYROLL_WORKERS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_WORKERS: %w", err)
	}
	staleAfter, err := getEnvDuration("PAYROLL_STALE_CALCULATION_AFTER", "30m")
	if err != nil {
		return nil, err
	}

	config.Payroll = PayrollConfig{
		Workers:               workers,
		BracketsFile:          getEnv("PAYROLL_BRACKETS_FILE", ""),
		StaleCalculationAfter: staleAfter,
	}
	multipliers := []struct {
		key string
		def string
		dst *decimal.Decimal
	}{
		{"OVERTIME_MULTIPLIER_41_46", "1.15", &config.Payroll.Multipliers.Hours41To46},
		{"OVERTIME_MULTIPLIER_ABOVE_46", "1.50", &config.Payroll.Multipliers.HoursAbove46},
		{"OVERTIME_MULTIPLIER_SATURDAY", "1.50", &config.Payroll.Multipliers.Saturday},
		{"OVERTIME_MULTIPLIER_SUNDAY", "1.75", &config.Payroll.Multipliers.Sunday},
		{"OVERTIME_MULTIPLIER_NIGHT", "0.75", &config.Payroll.Multipliers.Night},
		{"OVERTIME_MULTIPLIER_HOLIDAY", "1.00", &config.Payroll.Multipliers.Holiday},
	}
	for _, m := range multipliers {
		*m.dst, err = decimal.NewFromString(getEnv(m.key, m.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", m.key, err)
		}
	}

	// Overtime configuration
	weeklyHours, err := strconv.Atoi(getEnv("OVERTIME_STANDARD_WEEKLY_HOURS", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid OVERTIME_STANDARD_WEEKLY_HOURS: %w", err)
	}
	secondHours, err := strconv.Atoi(getEnv("OVERTIME_SECOND_THRESHOLD_HOURS", "46"))
	if err != nil {
		return nil, fmt.Errorf("invalid OVERTIME_SECOND_THRESHOLD_HOURS: %w", err)
	}
	nightStart, ok := validator.IsValidClock(getEnv("OVERTIME_NIGHT_START", "21:00"))
	if !ok {
		return nil, fmt.Errorf("invalid OVERTIME_NIGHT_START: must be HH:MM")
	}
	nightEnd, ok := validator.IsValidClock(getEnv("OVERTIME_NIGHT_END", "05:00"))
	if !ok {
		return nil, fmt.Errorf("invalid OVERTIME_NIGHT_END: must be HH:MM")
	}

	config.Overtime = OvertimeConfig{
		WeeklyThreshold: time.Duration(weeklyHours) * time.Hour,
		SecondThreshold: time.Duration(secondHours) * time.Hour,
		NightStart:      nightStart,
		NightEnd:        nightEnd,
	}

	// Cron configuration
	cronEnabled, err := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_ENABLED: %w", err)
	}
	staleInterval, err := getEnvDuration("CRON_STALE_RUN_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	config.Cron = CronConfig{
		Enabled:          cronEnabled,
		StaleRunInterval: staleInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Payroll.Workers < 1 {
		return fmt.Errorf("PAYROLL_WORKERS must be at least 1")
	}
	if c.Payroll.StaleCalculationAfter <= 0 {
		return fmt.Errorf("PAYROLL_STALE_CALCULATION_AFTER must be positive")
	}
	m := c.Payroll.Multipliers
	for _, d := range []decimal.Decimal{m.Hours41To46, m.HoursAbove46, m.Saturday, m.Sunday, m.Night, m.Holiday} {
		if d.IsNegative() {
			return fmt.Errorf("overtime multipliers must be non-negative")
		}
	}
	if c.Overtime.WeeklyThreshold <= 0 {
		return fmt.Errorf("OVERTIME_STANDARD_WEEKLY_HOURS must be positive")
	}
	if c.Overtime.SecondThreshold < c.Overtime.WeeklyThreshold {
		return fmt.Errorf("OVERTIME_SECOND_THRESHOLD_HOURS must not be below OVERTIME_STANDARD_WEEKLY_HOURS")
	}
	if c.Overtime.NightStart == c.Overtime.NightEnd {
		return fmt.Errorf("OVERTIME_NIGHT_START and OVERTIME_NIGHT_END must differ")
	}
	if c.Cron.Enabled && c.Cron.StaleRunInterval <= 0 {
		return fmt.Errorf("CRON_STALE_RUN_INTERVAL must be positive")
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
	case "warn":
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

func getEnvInt32(key string, fallback int32) (int32, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return int32(n), nil
}
