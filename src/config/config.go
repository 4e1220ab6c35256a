package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	JWTSecret          string
	CSRFAuthKey        []byte
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	MaxUploadSizeBytes int64

	// Gemini extraction service. An empty API key is not fatal at startup;
	// the ingestion pipeline rejects uploads with a credential error instead.
	GeminiAPIKey string
	GeminiModel  string

	// S3-compatible blob archive for raw contract notes.
	ArchiveBucket   string
	ArchiveRegion   string
	ArchiveEndpoint string

	// Starting capital for the equity curve.
	BaseCapital float64

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendBaseURL    string
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, relying on OS environment variables and defaults.")
	} else {
		log.Println(".env file loaded successfully.")
	}

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	csrfAuthKeyStr := getEnv("CSRF_AUTH_KEY", "a-very-secure-32-byte-long-key-must-be-32-bytes!")
	if len(csrfAuthKeyStr) < 32 {
		log.Fatalf("FATAL: CSRF_AUTH_KEY must be at least 32 bytes long. Current length: %d", len(csrfAuthKeyStr))
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	baseCapitalStr := getEnv("BASE_CAPITAL", "100000")
	baseCapital, err := strconv.ParseFloat(baseCapitalStr, 64)
	if err != nil {
		log.Printf("WARNING: Invalid BASE_CAPITAL format '%s'. Using default 100000. Error: %v", baseCapitalStr, err)
		baseCapital = 100000
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./tradeledger.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		JWTSecret:          jwtSecret,
		CSRFAuthKey:        []byte(csrfAuthKeyStr),
		AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),
		RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),

		MaxUploadSizeBytes: maxUploadSizeBytes,

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		ArchiveBucket:   getEnv("ARCHIVE_BUCKET", ""),
		ArchiveRegion:   getEnv("ARCHIVE_REGION", "us-east-1"),
		ArchiveEndpoint: getEnv("ARCHIVE_ENDPOINT", ""),

		BaseCapital: baseCapital,

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		FrontendBaseURL:    getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
	}

	if Cfg.GeminiAPIKey == "" {
		log.Println("WARNING: GEMINI_API_KEY is not set. Contract note uploads will be rejected until it is configured.")
	}
	if Cfg.ArchiveBucket == "" {
		log.Println("WARNING: ARCHIVE_BUCKET is not set. Raw contract notes will not be archived to blob storage.")
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, GeminiModel=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.GeminiModel)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
