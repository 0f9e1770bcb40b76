// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	Environment  string
	DatabasePath string
	JWTSecretKey string

	// Completion API (OpenAI-compatible chat completions endpoint).
	CompletionAPIKey  string
	CompletionBaseURL string
	CompletionModel   string

	// Retrieval / ingestion collaborator (the embedding service).
	RetrievalServiceURL string

	// Local storage root for uploaded files.
	StorageDir string

	// Secret required to fetch raw document bytes.
	DocumentAccessKey string

	HistoryWindow int
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		Environment:         env,
		DatabasePath:        getEnv("DATABASE_PATH", "ragchat.db"),
		JWTSecretKey:        getEnv("JWT_SECRET_KEY", ""),
		CompletionAPIKey:    getEnv("COMPLETION_API_KEY", ""),
		CompletionBaseURL:   getEnv("COMPLETION_BASE_URL", "https://api.groq.com/openai/v1/chat/completions"),
		CompletionModel:     getEnv("COMPLETION_MODEL", "deepseek-r1-distill-llama-70b"),
		RetrievalServiceURL: getEnv("RETRIEVAL_SERVICE_URL", "http://localhost:5002"),
		StorageDir:          getEnv("STORAGE_DIR", "storage"),
		DocumentAccessKey:   getEnv("DOCUMENT_ACCESS_KEY", ""),
		HistoryWindow:       getEnvAsInt("HISTORY_WINDOW", 20),
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if cfg.CompletionAPIKey == "" {
			missing = append(missing, "COMPLETION_API_KEY")
		}
		if cfg.RetrievalServiceURL == "" {
			missing = append(missing, "RETRIEVAL_SERVICE_URL")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
