package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	DBDSN     string
	JWTSecret string
	TokenTTL  time.Duration
	LogLevel  string

	// reply provider for the legacy chat endpoint and worker
	AIProvider    string
	OllamaBaseURL string
	OllamaModel   string

	// rabbitMQ; empty RabbitURL disables async chat jobs on the server
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int

	// terminal client
	ServerURL string
	Storage   string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads the environment, after merging a .env file from the working
// directory if there is one. Variables already set win over the file.
func Load() Config {
	_ = godotenv.Load()

	ttl := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}

	concurrency := getint("WORKER_CONCURRENCY", 2)
	if concurrency <= 0 {
		concurrency = 2
	}
	if concurrency > 50 {
		concurrency = 50
	}

	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":5000"),
		// DSN demo:
		// app:apppass@tcp(127.0.0.1:3306)/echocare?charset=utf8mb4&parseTime=true&loc=Local
		DBDSN:     getenv("DB_DSN", "sqlite://echocare.db"),
		JWTSecret: getenv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  ttl,
		LogLevel:  getenv("LOG_LEVEL", "info"),

		AIProvider:    getenv("AI_PROVIDER", "rules"),
		OllamaBaseURL: getenv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getenv("OLLAMA_MODEL", "phi3:mini"),

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitQueue:       getenv("RABBIT_QUEUE", "chat_jobs"),
		WorkerConcurrency: concurrency,

		ServerURL: getenv("ECHOCARE_SERVER", "http://localhost:5000"),
		Storage:   getenv("ECHOCARE_STORAGE", "sqlite://echocare-local.db"),
	}
}
