package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Rules    RulesConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
	SMTP     SMTPConfig
	Twilio   TwilioConfig
	Dispatch DispatchConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	RateLimitRPS  int
	SeedDirectory bool
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

// RulesConfig overrides classifier activation thresholds. Zero keeps the
// default for that measurement type.
type RulesConfig struct {
	SeaLevelRiseThreshold float64
	WaveHeightThreshold   float64
	WindSpeedThreshold    float64
	PollutionThreshold    float64
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

type DispatchConfig struct {
	SMSTimeout     time.Duration
	EmailTimeout   time.Duration
	WebhookTimeout time.Duration
	SensorAlertTTL time.Duration
	AnomalyTTL     time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "localhost"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:  getEnvInt("RATE_LIMIT_RPS", 50),
			SeedDirectory: getEnvBool("SEED_STAKEHOLDERS", true),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 4),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 64),
		},
		Rules: RulesConfig{
			SeaLevelRiseThreshold: getEnvFloat("SEA_LEVEL_RISE_THRESHOLD", 0),
			WaveHeightThreshold:   getEnvFloat("WAVE_HEIGHT_THRESHOLD", 0),
			WindSpeedThreshold:    getEnvFloat("WIND_SPEED_THRESHOLD", 0),
			PollutionThreshold:    getEnvFloat("POLLUTION_THRESHOLD", 0),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/coastal-alerts.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "alerts@coastal-alerts.local"),
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			From:       getEnv("TWILIO_FROM_NUMBER", ""),
		},
		Dispatch: DispatchConfig{
			SMSTimeout:     getEnvDuration("SMS_TIMEOUT", 10*time.Second),
			EmailTimeout:   getEnvDuration("EMAIL_TIMEOUT", 15*time.Second),
			WebhookTimeout: getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
			SensorAlertTTL: getEnvDuration("SENSOR_ALERT_TTL", 12*time.Hour),
			AnomalyTTL:     getEnvDuration("ANOMALY_ALERT_TTL", 24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitRPS)
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Dispatch.SensorAlertTTL < time.Minute {
		return fmt.Errorf("sensor alert TTL must be at least 1 minute")
	}
	if c.Dispatch.AnomalyTTL < time.Minute {
		return fmt.Errorf("anomaly alert TTL must be at least 1 minute")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
