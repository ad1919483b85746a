package config

import (
	"os"
	"strconv"
)

type Config struct {
	DatabaseType string
	DatabaseURL  string
	Port         string
	BindIP       string
	BaseURL      string

	UploadDir        string
	LinkTTLHours     int
	LinkMaxDownloads int
	SweepIntervalMin int

	LookupTimeoutSec int

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	MailFrom  string
	MailStaff string

	WhatsAppNumber string
	AdminAPIKey    string
	Debug          bool
}

func Load() *Config {
	cfg := &Config{
		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		Port:             getEnv("PORT", "8080"),
		BindIP:           getEnv("IP", "0.0.0.0"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		LinkTTLHours:     getEnvInt("LINK_TTL_HOURS", 48),
		LinkMaxDownloads: getEnvInt("LINK_MAX_DOWNLOADS", 5),
		SweepIntervalMin: getEnvInt("SWEEP_INTERVAL_MINUTES", 60),
		LookupTimeoutSec: getEnvInt("LOOKUP_TIMEOUT_SECONDS", 10),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPass:         getEnv("SMTP_PASS", ""),
		MailFrom:         getEnv("MAIL_FROM", "no-reply@nexconsult.com.br"),
		MailStaff:        getEnv("MAIL_STAFF", ""),
		WhatsAppNumber:   getEnv("WHATSAPP_NUMBER", ""),
		AdminAPIKey:      getEnv("ADMIN_API_KEY", ""),
		Debug:            getEnvBool("DEBUG", false),
	}

	// Set defaults for database
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "sqlite" {
			cfg.DatabaseURL = "nexconsult.db"
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
