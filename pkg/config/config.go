package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	GigaChat  GigaChatConfig
	Knowledge KnowledgeConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PublicBaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	StateTTL time.Duration
}

// Provider values accepted by AIConfig.Provider.
const (
	ProviderGateway  = "gateway"
	ProviderGigaChat = "gigachat"
)

type AIConfig struct {
	Provider   string
	GatewayURL string
	APIKey     string
	Model      string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type KnowledgeConfig struct {
	IssueLimit    int
	FeedbackLimit int
}

// maxFeedbackLimit caps how many feedback records feed the prompt.
const maxFeedbackLimit = 10

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for Docker/K8s
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout := getEnvInt("SERVER_READ_TIMEOUT", 30)
	writeTimeout := getEnvInt("SERVER_WRITE_TIMEOUT", 120)
	stateTTL := getEnvInt("SESSION_STATE_TTL_MINUTES", 60)

	feedbackLimit := getEnvInt("FEEDBACK_LIMIT", maxFeedbackLimit)
	if feedbackLimit <= 0 || feedbackLimit > maxFeedbackLimit {
		feedbackLimit = maxFeedbackLimit
	}
	issueLimit := getEnvInt("KNOWLEDGE_ISSUE_LIMIT", 10)
	if issueLimit <= 0 {
		issueLimit = 10
	}

	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			ReadTimeout:   time.Duration(readTimeout) * time.Second,
			WriteTimeout:  time.Duration(writeTimeout) * time.Second,
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "scm_chat"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			StateTTL: time.Duration(stateTTL) * time.Minute,
		},
		AI: AIConfig{
			Provider:   getEnv("AI_PROVIDER", ProviderGateway),
			GatewayURL: getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
			APIKey:     getEnv("AI_GATEWAY_API_KEY", ""),
			Model:      getEnv("AI_MODEL", "google/gemini-2.5-flash"),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true",
		},
		Knowledge: KnowledgeConfig{
			IssueLimit:    issueLimit,
			FeedbackLimit: feedbackLimit,
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
