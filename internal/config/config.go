package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Generation GenerationConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type GenerationConfig struct {
	GatewayBaseURL   string
	NarratorBaseURL  string
	PipelineVersion  string // DAG applied to newly compiled artifacts
	StageTimeout     time.Duration
	BackoffBase      time.Duration
	BackoffCap       time.Duration
	SweepInterval    time.Duration
	StageEventsTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Storybook"),
		},
		Generation: GenerationConfig{
			GatewayBaseURL:   getEnv("GENERATION_GATEWAY_URL", "http://localhost:8081"),
			NarratorBaseURL:  getEnv("NARRATOR_URL", "http://localhost:8082"),
			PipelineVersion:  getEnv("PIPELINE_VERSION", "v2"),
			StageTimeout:     getEnvAsDuration("STAGE_TIMEOUT", 10*time.Minute),
			BackoffBase:      getEnvAsDuration("BACKOFF_BASE", 1*time.Minute),
			BackoffCap:       getEnvAsDuration("BACKOFF_CAP", 30*time.Minute),
			SweepInterval:    getEnvAsDuration("SWEEP_INTERVAL", 30*time.Second),
			StageEventsTopic: getEnv("STAGE_EVENTS_TOPIC_NAME", "STAGE_EVENTS"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
