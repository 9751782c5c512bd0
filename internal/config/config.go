package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ragflow  RagflowConfig
	Keyword  KeywordConfig
	Callback CallbackConfig
	Dify     DifyConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

type DatabaseConfig struct {
	Connection string
}

// RagflowConfig holds the RAG backend coordinates. ChatID identifies the chat
// assistant whose sessions and completions endpoints this gateway talks to.
type RagflowConfig struct {
	BaseURL string
	APIKey  string
	ChatID  string
}

// KeywordConfig points at an OpenAI-compatible chat completions endpoint used
// for single-shot keyword extraction.
type KeywordConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type CallbackConfig struct {
	Enabled bool
	URL     string
}

type DifyConfig struct {
	BaseURL string
	APIKey  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ragflow: RagflowConfig{
			BaseURL: getEnv("RAGFLOW_BASE_URL", "http://localhost:9380"),
			APIKey:  getEnv("RAGFLOW_API_KEY", ""),
			ChatID:  getEnv("RAGFLOW_CHAT_ID", ""),
		},
		Keyword: KeywordConfig{
			BaseURL: getEnv("DASHSCOPE_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
			APIKey:  getEnv("DASHSCOPE_API_KEY", ""),
			Model:   getEnv("DASHSCOPE_MODEL", "qwen-turbo"),
		},
		Callback: CallbackConfig{
			Enabled: getEnvAsBool("CALLBACK_ENABLED", false),
			URL:     getEnv("CALLBACK_URL", ""),
		},
		Dify: DifyConfig{
			BaseURL: getEnv("DIFY_BASE_URL", "http://localhost/v1"),
			APIKey:  getEnv("DIFY_API_KEY", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
