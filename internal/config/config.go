package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level settings read from the environment
type Config struct {
	Port            string
	MongoURI        string
	MongoDatabase   string
	RedisAddr       string
	RedisPassword   string
	JWTSecret       string
	SessionTTL      time.Duration
	LogLevel        string
	LogPretty       bool
	ExamProfilePath string
}

// Load reads .env (when present) and the environment, applying defaults
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	redisAddr := getEnvOrDefault("REDIS_URI", "localhost:6379")
	redisAddr = strings.TrimPrefix(redisAddr, "redis://")

	return &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		MongoURI:        getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnvOrDefault("MONGO_DB", "speakexam"),
		RedisAddr:       redisAddr,
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       getEnvOrDefault("JWT_SECRET", "change-me-in-production"),
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MINUTES", 240)) * time.Minute,
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogPretty:       getEnvBool("LOG_PRETTY", false),
		ExamProfilePath: os.Getenv("EXAM_PROFILE"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
