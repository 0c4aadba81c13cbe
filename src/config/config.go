package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// GlobalConfig holds the runtime configuration, loaded from the environment.
type GlobalConfig struct {
	LogLevel string
	Host     string
	Port     string

	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string

	RabbitHost string
	RabbitPort int
	RabbitUser string
	RabbitPass string

	// Optional. Empty disables the on-shift presence check.
	RedisAddr     string
	RedisPassword string

	// Optional. Empty disables auth on the admin surface.
	CronSecret string

	RequestTTL    time.Duration
	SweepInterval time.Duration
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s environment variable is required", key)
	}
	return v, nil
}

func requireEnvInt(key string) (int, error) {
	s, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func envMinutes(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer of minutes", key)
	}
	return time.Duration(n) * time.Minute, nil
}

func envSeconds(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer of seconds", key)
	}
	return time.Duration(n) * time.Second, nil
}

// NewConfig loads and validates configuration from the environment.
func NewConfig() (GlobalConfig, error) {
	var cfg GlobalConfig
	var err error

	required := []struct {
		dst *string
		key string
	}{
		{&cfg.LogLevel, "LOG_LEVEL"},
		{&cfg.Host, "HOST"},
		{&cfg.Port, "PORT"},
		{&cfg.DatabaseHost, "DATABASE_HOST"},
		{&cfg.DatabaseUser, "DATABASE_USER"},
		{&cfg.DatabasePassword, "DATABASE_PASSWORD"},
		{&cfg.DatabaseName, "DATABASE_NAME"},
		{&cfg.RabbitHost, "RABBITMQ_HOST"},
		{&cfg.RabbitUser, "RABBITMQ_USER"},
		{&cfg.RabbitPass, "RABBITMQ_PASS"},
	}
	for _, f := range required {
		if *f.dst, err = requireEnv(f.key); err != nil {
			return GlobalConfig{}, err
		}
	}

	if cfg.DatabasePort, err = requireEnvInt("DATABASE_PORT"); err != nil {
		return GlobalConfig{}, err
	}
	if cfg.RabbitPort, err = requireEnvInt("RABBITMQ_PORT"); err != nil {
		return GlobalConfig{}, err
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.CronSecret = os.Getenv("CRON_SECRET")

	if cfg.RequestTTL, err = envMinutes("REQUEST_TTL_MINUTES", 15*time.Minute); err != nil {
		return GlobalConfig{}, err
	}
	if cfg.SweepInterval, err = envSeconds("SWEEP_INTERVAL_SECONDS", time.Minute); err != nil {
		return GlobalConfig{}, err
	}

	return cfg, nil
}

// AMQPURL builds the broker connection string.
func (c *GlobalConfig) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.RabbitUser, c.RabbitPass, c.RabbitHost, c.RabbitPort)
}
