package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Cohere
	CohereAPIKey     string
	CohereBaseURL    string
	CohereEmbedModel string
	CohereChatModel  string

	// Vector store
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	VectorStore      string // "qdrant" or "local"
	LocalStorePath   string

	// Retrieval
	TopK int

	// Upstream calls
	UpstreamTimeout time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port: getEnvOrDefault("PORT", "8080"),
		Env:  getEnvOrDefault("ENV", "development"),

		CohereAPIKey:     mustGetEnv("COHERE_API_KEY"),
		CohereBaseURL:    getEnvOrDefault("COHERE_BASE_URL", "https://api.cohere.com"),
		CohereEmbedModel: getEnvOrDefault("COHERE_EMBED_MODEL", "embed-english-v3.0"),
		CohereChatModel:  getEnvOrDefault("COHERE_CHAT_MODEL", "command-r-plus-08-2024"),

		QdrantURL:        mustGetEnv("QDRANT_URL"),
		QdrantAPIKey:     mustGetEnv("QDRANT_API_KEY"),
		QdrantCollection: getEnvOrDefault("QDRANT_COLLECTION", "book_docs"),
		VectorStore:      getEnvOrDefault("VECTOR_STORE", "qdrant"),
		LocalStorePath:   getEnvOrDefault("LOCAL_STORE_PATH", "db-data/store.gob"),

		TopK: getEnvAsIntOrDefault("RAG_TOP_K", 5),

		UpstreamTimeout: getEnvAsDurationOrDefault("UPSTREAM_TIMEOUT", 30*time.Second),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
