package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	FCMServiceAccount string
	RedisAddress      string
	RedisPassword     string
	LockTTL           time.Duration
	LogLevel          string
	Timezone          string
	UploadsDir        string
}

func Load() *Config {
	// A missing .env is fine, real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "kpitrack.db"),
		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:              getEnv("PORT", "8080"),
		FCMServiceAccount: getEnv("FCM_SERVICE_ACCOUNT", ""),
		RedisAddress:      getEnv("REDIS_ADDRESS", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		LockTTL:           getDuration("LOCK_TTL", 30*time.Second),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Timezone:          getEnv("TIMEZONE", "Asia/Ho_Chi_Minh"),
		UploadsDir:        getEnv("UPLOADS_DIR", "uploads"),
	}
}

// Location resolves Timezone, falling back to UTC when the zone database
// does not know it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
