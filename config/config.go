package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port         string
	GinMode      string
	FrontendURLs []string

	RedisAddr     string
	RedisUser     string
	RedisPassword string
	RedisDB       int

	// Postgres. DatabaseURL wins when set; the DB* fields are the local-dev
	// fallback.
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	AmadeusClientID     string
	AmadeusClientSecret string
	AmadeusBaseURL      string

	OpenAIAPIKey string
	GeminiAPIKey string
	TavilyAPIKey string
}

// Load reads all settings from the environment.
func Load() *Config {
	amadeusBase := "https://api.amadeus.com"
	if env := os.Getenv("AMADEUS_ENV"); env == "" || env == "test" {
		amadeusBase = "https://test.api.amadeus.com"
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		GinMode:      getEnv("GIN_MODE", ""),
		FrontendURLs: splitList(os.Getenv("FRONTEND_URL")),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisUser:     os.Getenv("REDIS_USER"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "flightmate"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		AmadeusClientID:     os.Getenv("AMADEUS_CLIENT_ID"),
		AmadeusClientSecret: os.Getenv("AMADEUS_CLIENT_SECRET"),
		AmadeusBaseURL:      amadeusBase,

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
