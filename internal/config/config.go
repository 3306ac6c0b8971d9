package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string

	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	// Lifecycle deadline windows.
	PaymentWindow        time.Duration // pending_payment -> expired
	StylistRespondWindow time.Duration // pending_stylist_approval -> stylist_no_response
	ClientConfirmWindow  time.Duration // stylist_accepted -> client_no_confirm
	NoShowGrace          time.Duration // earliest no-show mark after start time

	// Availability derivation.
	SlotGranularity      time.Duration
	FreeCancelWindow     time.Duration
	AvailabilityCacheTTL time.Duration

	// External collaborators.
	PaymentGatewayURL     string
	PaymentGatewayTimeout time.Duration
	NotifyDispatcherURL   string
	NotifyDispatchTimeout time.Duration

	// Timeout scheduler worker.
	TimeoutSchedulerPoll  time.Duration
	TimeoutSchedulerBatch int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required to validate tokens issued by the auth service
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", "15m"); err != nil {
		return nil, err
	}

	if cfg.PaymentWindow, err = getEnvAsDuration("PAYMENT_WINDOW", "15m"); err != nil {
		return nil, err
	}
	if cfg.StylistRespondWindow, err = getEnvAsDuration("STYLIST_RESPONSE_WINDOW", "2h"); err != nil {
		return nil, err
	}
	if cfg.ClientConfirmWindow, err = getEnvAsDuration("CLIENT_CONFIRM_WINDOW", "1h"); err != nil {
		return nil, err
	}
	if cfg.NoShowGrace, err = getEnvAsDuration("NO_SHOW_GRACE", "15m"); err != nil {
		return nil, err
	}

	if cfg.SlotGranularity, err = getEnvAsDuration("SLOT_GRANULARITY", "15m"); err != nil {
		return nil, err
	}
	if cfg.FreeCancelWindow, err = getEnvAsDuration("FREE_CANCEL_WINDOW", "24h"); err != nil {
		return nil, err
	}
	if cfg.AvailabilityCacheTTL, err = getEnvAsDuration("AVAILABILITY_CACHE_TTL", "30s"); err != nil {
		return nil, err
	}

	cfg.PaymentGatewayURL = getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9091")
	if cfg.PaymentGatewayTimeout, err = getEnvAsDuration("PAYMENT_GATEWAY_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	cfg.NotifyDispatcherURL = getEnv("NOTIFY_DISPATCHER_URL", "http://localhost:9092")
	if cfg.NotifyDispatchTimeout, err = getEnvAsDuration("NOTIFY_DISPATCH_TIMEOUT", "5s"); err != nil {
		return nil, err
	}

	if cfg.TimeoutSchedulerPoll, err = getEnvAsDuration("TIMEOUT_SCHEDULER_POLL", "30s"); err != nil {
		return nil, err
	}
	if cfg.TimeoutSchedulerBatch, err = getEnvAsInt("TIMEOUT_SCHEDULER_BATCH", 50); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsDuration parses an environment variable as a time.Duration
// (e.g. "15m", "2h"), falling back to the default when unset.
func getEnvAsDuration(key, defaultValue string) (time.Duration, error) {
	v := getEnv(key, defaultValue)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}
