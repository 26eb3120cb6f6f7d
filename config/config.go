package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	Telegram TelegramConfig
	API      APIConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type TelegramConfig struct {
	Token string
}

type APIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration // kantin order screen refresh
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	pollSec, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "10"))
	if pollSec <= 0 {
		pollSec = 10
	}

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "kudakan"),
		},
		Telegram: TelegramConfig{
			Token: getEnv("TOKEN", ""),
		},
		API: APIConfig{
			BaseURL:      getEnv("API_BASE_URL", "https://kudakan-backend.vercel.app/api/v1"),
			Timeout:      30 * time.Second,
			PollInterval: time.Duration(pollSec) * time.Second,
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
