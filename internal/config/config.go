package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Reconciliation
	HorizonMonths     int
	ReconcileSchedule string

	// Persistence
	DBDriver     string // "sqlite" or "postgres"
	SQLitePath   string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	SaveDebounce time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Reconciliation: horizon defaults to 3 months; refresh runs daily at midnight.
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "0 0 * * *"),

		// Persistence
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", "moneta.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "moneta"),
		DBPassword: getEnv("DB_PASSWORD", "moneta"),
		DBName:     getEnv("DB_NAME", "moneta"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	horizonStr := getEnv("HORIZON_MONTHS", "3")
	horizon, err := strconv.Atoi(horizonStr)
	if err != nil || horizon < 1 {
		log.Printf("Warning: invalid HORIZON_MONTHS value '%s', falling back to 3\n", horizonStr)
		horizon = 3
	}
	config.HorizonMonths = horizon

	debounceStr := getEnv("SAVE_DEBOUNCE", "2s")
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil {
		log.Printf("Warning: invalid SAVE_DEBOUNCE value '%s', falling back to 2s\n", debounceStr)
		debounce = 2 * time.Second
	}
	config.SaveDebounce = debounce

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
