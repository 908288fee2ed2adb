package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string

	// Association store backend: "mongo" (default) or "postgres".
	DBDriver    string
	PostgresDSN string

	// How long a completed batch stays revertible.
	UndoWindowMinutes int
	// How long terminal operations are kept before the purge job removes them.
	RetentionDays int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:            getEnv("DB_NAME", "go-assetlink"),
		SkipAuth:          getEnv("SKIP_AUTH", "false") == "true",
		Environment:       getEnv("ENVIRONMENT", "development"),
		AppId:             getEnv("APP_ID", "go-assetlink"),
		DBDriver:          getEnv("DB_DRIVER", "mongo"),
		PostgresDSN:       getEnv("POSTGRES_DSN", "postgres://localhost:5432/assetlink?sslmode=disable"),
		UndoWindowMinutes: getEnvInt("UNDO_WINDOW_MINUTES", 30),
		RetentionDays:     getEnvInt("RETENTION_DAYS", 30),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid value for %s, using default %d\n", key, fallback)
	}
	return fallback
}
