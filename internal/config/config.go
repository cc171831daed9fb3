package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	DatabaseURL string // PostgreSQL - tickets, chats, profiles, knowledge chunks, email logs
	Version     string
	LogLevel    string

	OpenAIKey     string
	OpenAIBaseURL string // Optional override for proxied/self-hosted deployments
	OpenAITimeout int    // OpenAI API timeout in seconds

	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	SendGridAPIKey string
	SupportName    string // Display name used on outbound replies
	SupportEmail   string // From address for outbound replies
	OrgName        string // Company name rendered inside customer-facing reply templates

	// Pipeline policy. Defaults carry the signed-off product values;
	// do not change them without sign-off.
	AutoSendThreshold  int     // RAG confidence required to auto-send (full-auto path only)
	SimilarityFloor    float32 // Minimum vector similarity for retrieval
	RagTopK            int     // Chunks retrieved per query
	ReopenGraceDays    int     // Window after closure during which a new email reopens a ticket
	ChunkSize          int     // Characters per knowledge chunk
	ChunkOverlap       int     // Overlap between consecutive chunks
	EmbeddingBatchSize int     // Texts per embedding API call during ingestion
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Version:     getEnv("VERSION", "1.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_API_BASE_URL"),
		OpenAITimeout: getEnvInt("OPENAI_TIMEOUT", 60),

		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "aidesk-rag-embeddings"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		SupportName:    getEnv("SUPPORT_NAME", "Support Agent"),
		SupportEmail:   getEnv("SUPPORT_EMAIL", "support@aidesk.io"),
		OrgName:        getEnv("ORG_NAME", "our team"),

		AutoSendThreshold:  getEnvInt("AUTO_SEND_THRESHOLD", 75),
		SimilarityFloor:    getEnvFloat32("SIMILARITY_FLOOR", 0.7),
		RagTopK:            getEnvInt("RAG_TOP_K", 5),
		ReopenGraceDays:    getEnvInt("REOPEN_GRACE_DAYS", 30),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 200),
		EmbeddingBatchSize: getEnvInt("EMBEDDING_BATCH_SIZE", 50),
	}

	return config
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat32 gets an environment variable as float32 with a default fallback
func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatValue)
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "aidesk").
		Str("version", c.Version).
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
