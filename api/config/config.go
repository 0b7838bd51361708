package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	BaseURL        string
	OutputDir      string
	MaxFileSize    int64
	WorkerCount    int
	ConvertTimeout time.Duration
	DefaultDPI     int
	DefaultFormat  string
	JPEGQuality    int
}

func Load() *Config {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("SERVICE_PORT", "4000"),
		Env:            getEnv("ENV", "development"),
		BaseURL:        getEnv("API_BASE_URL", "http://localhost:4000"),
		OutputDir:      getEnv("OUTPUT_DIR", "./output"),
		MaxFileSize:    getEnvAsInt64("MAX_FILE_SIZE", 100*1024*1024),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 5),
		ConvertTimeout: time.Duration(getEnvAsInt("CONVERT_TIMEOUT_SECONDS", 120)) * time.Second,
		DefaultDPI:     getEnvAsInt("DEFAULT_DPI", 300),
		DefaultFormat:  getEnv("DEFAULT_FORMAT", "png"),
		JPEGQuality:    getEnvAsInt("JPEG_QUALITY", 95),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
