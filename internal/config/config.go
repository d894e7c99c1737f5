package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port          string
	AllowedOrigin string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AuthSecret    string
	ManagerPIN    string
	// QueuePath is the sqlite file backing the local durable queue. Empty
	// selects the in-memory queue (dev mode only; queued sales will not
	// survive a restart).
	QueuePath             string
	SyncIntervalSeconds   int
	RemoteTimeoutSeconds  int
	StaleThresholdSeconds int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		ManagerPIN:            strings.TrimSpace(os.Getenv("MANAGER_PIN")),
		QueuePath:             os.Getenv("QUEUE_PATH"),
		SyncIntervalSeconds:   positiveEnvInt("SYNC_INTERVAL_SECONDS", 30),
		RemoteTimeoutSeconds:  positiveEnvInt("REMOTE_TIMEOUT_SECONDS", 5),
		StaleThresholdSeconds: positiveEnvInt("STALE_THRESHOLD_SECONDS", 120),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func positiveEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || val < 1 {
		return fallback
	}
	return val
}
