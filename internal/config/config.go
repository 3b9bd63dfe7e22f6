package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseURI     string
	DatabaseName    string
	SessionDuration time.Duration
	OTPTTL          time.Duration
	OTPStore        string

	MailProvider   string
	MailAPIKey     string
	MailUser       string
	MailPassword   string
	MailSender     string
	MailSenderName string
	AWSRegion      string
	SMTPHost       string
	SMTPPort       int

	LogFormat string
	Debug     bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present; variables
// already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "3000"),
		DatabaseURI:     getEnv("DB_URI", "sqlite://./aura.db"),
		DatabaseName:    getEnv("DB_NAME", "aura"),
		SessionDuration: getDuration("SESSION_DURATION", 24*time.Hour),
		OTPTTL:          getDuration("OTP_TTL", 10*time.Minute),
		OTPStore:        strings.ToLower(getEnv("OTP_STORE", "db")),

		MailProvider:   strings.ToLower(getEnv("MAIL_PROVIDER", "")),
		MailAPIKey:     getEnv("MAIL_API_KEY", ""),
		MailUser:       getEnv("MAIL_USER", ""),
		MailPassword:   getEnv("MAIL_PASSWORD", ""),
		MailSender:     getEnv("MAIL_SENDER", ""),
		MailSenderName: getEnv("MAIL_SENDER_NAME", "Aura"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getInt("SMTP_PORT", 587),

		LogFormat: getEnv("LOG_FORMAT", "json"),
		Debug:     getBool("DEBUG", false),
	}
}

// ResolvedMailProvider reports which mail transport the configuration selects:
// "ses", "smtp", or "" when no usable credentials are present.
func (c *Config) ResolvedMailProvider() string {
	switch c.MailProvider {
	case "ses":
		if c.MailSender == "" {
			return ""
		}
		return "ses"
	case "smtp":
		if c.MailUser == "" || c.MailPassword == "" {
			return ""
		}
		return "smtp"
	}

	if c.MailAPIKey != "" && c.MailSender != "" {
		return "ses"
	}
	if c.MailUser != "" && c.MailPassword != "" {
		return "smtp"
	}
	return ""
}

// SenderAddress returns the from-address for outbound mail. SMTP accounts
// default to sending as themselves.
func (c *Config) SenderAddress() string {
	if c.MailSender != "" {
		return c.MailSender
	}
	return c.MailUser
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
