package config

import (
	"fmt"
	"os"
)

type Config struct {
	// Image generation provider
	GenAIAPIKey      string
	GenAIBaseURL     string
	GenAIModel       string
	GenAISketchModel string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Customer notifications (edge function endpoint)
	NotifyEndpoint string
	NotifyAPIKey   string

	// Customer review links are built from this base, e.g.
	// https://app.example.com/review/<token>
	ReviewBaseURL string

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		GenAIAPIKey:      getEnv("GENAI_API_KEY", ""),
		GenAIBaseURL:     getEnv("GENAI_API_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GenAIModel:       getEnv("GENAI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GenAISketchModel: getEnv("GENAI_SKETCH_MODEL", "gemini-2.5-flash-image"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "book-artwork"),

		NotifyEndpoint: getEnv("NOTIFY_ENDPOINT", ""),
		NotifyAPIKey:   getEnv("NOTIFY_API_KEY", ""),

		ReviewBaseURL: getEnv("REVIEW_BASE_URL", "http://localhost:3000/review"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GenAIAPIKey == "" {
		return fmt.Errorf("GENAI_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
