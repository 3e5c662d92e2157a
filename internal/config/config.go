package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// HTTP server Configuration
	Server ServerConfig

	// Identity Configuration
	Identity IdentityConfig

	// Loan Configuration
	Loans LoanConfig

	// Logging Configuration
	Logging LoggingConfig

	// Optional YAML seed file applied at server start
	SeedPath string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address string // listen address (host:port)
}

// IdentityConfig holds identity-provider configuration
type IdentityConfig struct {
	JWTSecret   string   // empty = generated and persisted on first start
	AdminEmails []string // sign-ups with these addresses get the admin role
}

// LoanConfig holds borrowing configuration
type LoanConfig struct {
	PeriodDays    int    // days before a borrowed book counts as overdue
	CheckSchedule string // cron expression for the overdue sweep
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// Database URL - default to bookhub.sqlite, allow override for dev
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "bookhub.sqlite"
	}

	// Redis address - default to localhost:6379, allow override for dev/docker
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	// Admin allowlist: comma-separated emails promoted to admin on sign-up
	var adminEmails []string
	for _, email := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		email = strings.TrimSpace(strings.ToLower(email))
		if email != "" {
			adminEmails = append(adminEmails, email)
		}
	}

	loanPeriod := 14
	if v := os.Getenv("LOAN_PERIOD_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			loanPeriod = n
		}
	}

	loanSchedule := os.Getenv("LOAN_CHECK_SCHEDULE")
	if loanSchedule == "" {
		loanSchedule = "0 6 * * *" // daily overdue sweep at 6am
	}

	// Logging configuration - defaults suitable for production
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Server: ServerConfig{
			Address: serverAddr,
		},
		Identity: IdentityConfig{
			JWTSecret:   os.Getenv("JWT_SECRET"),
			AdminEmails: adminEmails,
		},
		Loans: LoanConfig{
			PeriodDays:    loanPeriod,
			CheckSchedule: loanSchedule,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		SeedPath: os.Getenv("BOOKHUB_SEED"),
	}, nil
}
