package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	JWTSecret    string
	Port         string
	DatabasePath string
	LogLevel     string

	AccessTokenExpiry time.Duration
	AuthDisabled      bool

	// Rate limiting for the public API surface.
	RateLimitInterval time.Duration
	RateLimitBurst    int

	// LegacyRejectSettles reproduces the historical behavior where a
	// rejected fee jumps straight to SETTLED instead of returning to
	// APPEALING. Off unless a deployment needs bit-for-bit compatibility.
	LegacyRejectSettles bool

	AlertServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail string
	SenderName  string

	// Recipient for low-balance alerts when an account has no contact
	// address of its own.
	FinanceAlertEmail string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	accessTokenExpiryStr := getEnv("ACCESS_TOKEN_EXPIRY", "60m")
	accessTokenExpiry, err := time.ParseDuration(accessTokenExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid ACCESS_TOKEN_EXPIRY format '%s'. Using default 60m. Error: %v", accessTokenExpiryStr, err)
		accessTokenExpiry = 60 * time.Minute
	}

	rateLimitIntervalStr := getEnv("RATE_LIMIT_INTERVAL", "100ms")
	rateLimitInterval, err := time.ParseDuration(rateLimitIntervalStr)
	if err != nil {
		log.Printf("WARNING: Invalid RATE_LIMIT_INTERVAL format '%s'. Using default 100ms. Error: %v", rateLimitIntervalStr, err)
		rateLimitInterval = 100 * time.Millisecond
	}

	Cfg = &AppConfig{
		JWTSecret:    jwtSecret,
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./freightpay.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		AccessTokenExpiry: accessTokenExpiry,
		AuthDisabled:      getEnvAsBool("AUTH_DISABLED", false),

		RateLimitInterval: rateLimitInterval,
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 30),

		LegacyRejectSettles: getEnvAsBool("LEGACY_REJECT_SETTLES", false),

		AlertServiceProvider: getEnv("ALERT_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail: getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:  getEnv("SENDER_NAME", "FreightPay"),

		FinanceAlertEmail: getEnv("FINANCE_ALERT_EMAIL", ""),
	}

	if Cfg.AlertServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when ALERT_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when ALERT_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, AlertProvider=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.AlertServiceProvider)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %v", key, valueStr, fallback)
	return fallback
}
