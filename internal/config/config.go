package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey  string
	DataGovAPIKey string
	DatabaseURL   string
	HTTPPort      string
	AppEnv        string // "dev" or "prod", controls logger mode

	CorpusLimit        int
	RetrievalTopN      int
	RetrievalThreshold float64
	GenerateTimeoutSec int
	SessionTTLMinutes  int // 0 = sessions never expire
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		DataGovAPIKey: getEnv("DATA_GOV_API_KEY", ""),
		DatabaseURL:   getEnv("DATABASE_URL", "kisaansetu.db"),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		AppEnv:        getEnv("APP_ENV", "dev"),

		CorpusLimit:        getEnvAsInt("CORPUS_LIMIT", 1000),
		RetrievalTopN:      getEnvAsInt("RETRIEVAL_TOP_N", 5),
		RetrievalThreshold: getEnvAsFloat("RETRIEVAL_THRESHOLD", 0.5),
		GenerateTimeoutSec: getEnvAsInt("GENERATE_TIMEOUT_SECONDS", 60),
		SessionTTLMinutes:  getEnvAsInt("SESSION_TTL_MINUTES", 0),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
