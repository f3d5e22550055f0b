package config

import (
	"os"
	"strings"
)

type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	AllowedOrigins []string
	UploadDir      string
}

func Load() *Config {
	origins := strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}

	return &Config{
		Port:           getEnv("PORT", "5300"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AllowedOrigins: origins,
		UploadDir:      getEnv("UPLOAD_DIR", "uploads/match_photos"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
