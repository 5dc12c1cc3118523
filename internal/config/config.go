package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPubSub    = "pubsub"
)

type Config struct {
	RunAddress  string
	DatabaseURI string
	LogLevel    string

	JWTSecret            string
	OperatorLogin        string
	OperatorPasswordHash string

	NotificationStore  string
	QueueBackend       string
	GCPProjectID       string
	PubSubTopic        string
	PubSubSubscription string

	SMTP            SMTPConfig
	NotifyRecipient string
	RetryInterval   time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// New reads flags from os.Args and overrides them with environment
// variables. A .env file in the working directory is loaded first if present.
func New() *Config {
	_ = godotenv.Load()

	cfg, err := Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	fs.StringVar(&cfg.RunAddress, "a", "localhost:8080", "server address and port")
	fs.StringVar(&cfg.DatabaseURI, "d", "", "database URI (empty keeps catalog and orders in memory)")
	fs.StringVar(&cfg.LogLevel, "l", "info", "log level")
	fs.StringVar(&cfg.JWTSecret, "s", "", "jwt signing key (empty disables operator auth)")
	fs.StringVar(&cfg.NotificationStore, "notification-store", BackendMemory, "notification record store: memory or firestore")
	fs.StringVar(&cfg.QueueBackend, "queue", BackendMemory, "order event queue: memory or pubsub")
	fs.DurationVar(&cfg.RetryInterval, "retry-interval", 30*time.Second, "interval between notification retry ticks")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.RunAddress = getEnv("RUN_ADDRESS", cfg.RunAddress)
	cfg.DatabaseURI = getEnv("DATABASE_URI", cfg.DatabaseURI)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.OperatorLogin = getEnv("OPERATOR_LOGIN", "")
	cfg.OperatorPasswordHash = getEnv("OPERATOR_PASSWORD_HASH", "")
	cfg.NotificationStore = strings.ToLower(getEnv("NOTIFICATION_STORE", cfg.NotificationStore))
	cfg.QueueBackend = strings.ToLower(getEnv("QUEUE_BACKEND", cfg.QueueBackend))
	cfg.GCPProjectID = getEnv("GCP_PROJECT_ID", getEnv("GOOGLE_CLOUD_PROJECT", ""))
	cfg.PubSubTopic = getEnv("PUBSUB_TOPIC", "email")
	cfg.PubSubSubscription = getEnv("PUBSUB_SUBSCRIPTION", "email")
	cfg.NotifyRecipient = getEnv("NOTIFY_RECIPIENT", "example@example.example")

	cfg.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", "localhost"),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "orders@localhost"),
	}

	port, err := strconv.Atoi(getEnv("SMTP_PORT", "25"))
	if err != nil {
		return nil, fmt.Errorf("parse SMTP_PORT: %w", err)
	}
	cfg.SMTP.Port = port

	if v, ok := os.LookupEnv("RETRY_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse RETRY_INTERVAL: %w", err)
		}
		cfg.RetryInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.NotificationStore {
	case BackendMemory, BackendFirestore:
	default:
		return fmt.Errorf("unknown notification store %q", c.NotificationStore)
	}
	switch c.QueueBackend {
	case BackendMemory, BackendPubSub:
	default:
		return fmt.Errorf("unknown queue backend %q", c.QueueBackend)
	}
	if (c.NotificationStore == BackendFirestore || c.QueueBackend == BackendPubSub) && c.GCPProjectID == "" {
		return errors.New("GCP_PROJECT_ID is required for firestore or pubsub backends")
	}
	if c.RetryInterval <= 0 {
		return errors.New("retry interval must be positive")
	}
	return nil
}

// AuthEnabled reports whether operator auth is fully configured.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" && c.OperatorLogin != "" && c.OperatorPasswordHash != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
