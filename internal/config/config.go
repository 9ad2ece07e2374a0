package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string
	LogMode  string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LessonLockTTL time.Duration

	// shared key for /api routes
	APIKey  string
	BaseURL string

	// Lessonspace
	LessonspaceAPIURL string
	LessonspaceAPIKey string

	// AI provider
	AIProvider        string
	AIModel           string
	AgentTimeout      time.Duration
	OllamaBaseURL     string
	OllamaModel       string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string

	DownloadTimeout time.Duration

	// rabbitMQ (lesson events); empty URL disables publishing
	RabbitURL   string
	RabbitQueue string
}

func Load() Config {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}

	// DSN demo：
	// app:apppass@tcp(127.0.0.1:3306)/tutor_platform?charset=utf8mb4&parseTime=true&loc=Local
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			"app", "apppass", "127.0.0.1", "3306", "tutor_platform",
		)
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8000"
	}

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "dev"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		apiKey = "dev-api-key-change-me"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	lessonspaceURL := os.Getenv("LESSONSPACE_API_URL")
	if lessonspaceURL == "" {
		lessonspaceURL = "https://api.thelessonspace.com/v2"
	}

	// AI provider config
	aiProvider := os.Getenv("AI_PROVIDER")
	if aiProvider == "" {
		aiProvider = "openrouter"
	}

	ollamaBaseURL := os.Getenv("OLLAMA_BASE_URL")
	if ollamaBaseURL == "" {
		ollamaBaseURL = "http://localhost:11434"
	}

	ollamaModel := os.Getenv("OLLAMA_MODEL")
	if ollamaModel == "" {
		ollamaModel = "llama3:latest"
	}

	openRouterBaseURL := os.Getenv("OPENROUTER_BASE_URL")
	if openRouterBaseURL == "" {
		openRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	openRouterModel := os.Getenv("OPENROUTER_MODEL")
	if openRouterModel == "" {
		openRouterModel = "openai/gpt-4o"
	}

	// rabbitMQ config
	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "lesson_events"
	}

	return Config{
		HTTPAddr: httpAddr,
		LogMode:  logMode,

		DBDriver: driver,
		DBDSN:    dsn,

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		LessonLockTTL: durationEnv("LESSON_LOCK_TTL", 15*time.Minute),

		APIKey:  apiKey,
		BaseURL: baseURL,

		LessonspaceAPIURL: lessonspaceURL,
		LessonspaceAPIKey: os.Getenv("LESSONSPACE_API_KEY"),

		AIProvider:        aiProvider,
		AIModel:           os.Getenv("AI_MODEL"),
		AgentTimeout:      durationEnv("AGENT_TIMEOUT", 3*time.Minute),
		OllamaBaseURL:     ollamaBaseURL,
		OllamaModel:       ollamaModel,
		OpenRouterBaseURL: openRouterBaseURL,
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   openRouterModel,
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),

		DownloadTimeout: durationEnv("DOWNLOAD_TIMEOUT", 60*time.Second),

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,
	}
}

// durationEnv accepts Go duration strings ("90s") or plain seconds ("90").
func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
