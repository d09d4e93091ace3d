package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	HTTPPort int
	Storage  string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	NatsURL     string
	NatsSubject string

	TelegramBotToken string
	AdminID          int64
	InviteCode       string
	DriverName       string

	Timezone          string
	CleanupInterval   time.Duration
	CleanupMaxAgeDays int
	StoreRetries      int
	InviteRate        int
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "driverbook"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.HTTPPort = cast.ToInt(getOrReturnDefault("HTTP_PORT", 8080))
	cfg.Storage = cast.ToString(getOrReturnDefault("STORAGE", StoragePostgres))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "driverbook"))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", ""))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))

	cfg.NatsURL = cast.ToString(getOrReturnDefault("NATS_URL", ""))
	cfg.NatsSubject = cast.ToString(getOrReturnDefault("NATS_SUBJECT", "booking.created"))

	cfg.TelegramBotToken = cast.ToString(getOrReturnDefault("TG_BOT_TOKEN", ""))
	cfg.AdminID = cast.ToInt64(getOrReturnDefault("ADMIN_ID", 0))
	cfg.InviteCode = cast.ToString(getOrReturnDefault("INVITE_CODE", "default123"))
	cfg.DriverName = cast.ToString(getOrReturnDefault("DRIVER_NAME", "Персональный водитель"))

	cfg.Timezone = cast.ToString(getOrReturnDefault("TIMEZONE", "Europe/Moscow"))
	cfg.CleanupInterval = cast.ToDuration(getOrReturnDefault("CLEANUP_INTERVAL", "24h"))
	cfg.CleanupMaxAgeDays = cast.ToInt(getOrReturnDefault("CLEANUP_MAX_AGE_DAYS", 30))
	cfg.StoreRetries = cast.ToInt(getOrReturnDefault("STORE_RETRIES", 3))
	cfg.InviteRate = cast.ToInt(getOrReturnDefault("INVITE_RATE", 5))

	return cfg
}

// Location resolves Timezone, falling back to UTC for unknown zone names.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
