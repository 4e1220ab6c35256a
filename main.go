package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/tradeledger/backend/src/config"
	"github.com/username/tradeledger/backend/src/database"
	"github.com/username/tradeledger/backend/src/extraction"
	"github.com/username/tradeledger/backend/src/handlers"
	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/processors"
	"github.com/username/tradeledger/backend/src/security"
	"github.com/username/tradeledger/backend/src/services"
	"github.com/username/tradeledger/backend/src/storage"
	"github.com/username/tradeledger/backend/src/utils"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Application starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("FATAL: JWT_SECRET must be at least 32 bytes long for HS256.", "currentLength", len(config.Cfg.JWTSecret))
		os.Exit(1)
	}

	database.InitDB(config.Cfg.DatabasePath)
	defer func() {
		if database.DB != nil {
			logger.L.Info("Closing database connection...")
			database.DB.Close()
		}
	}()

	appCache := cache.New(15*time.Minute, 30*time.Minute)
	logger.L.Info("In-memory cache initialized")

	ctx := context.Background()

	hub := storage.NewChangeHub()
	noteStore := storage.NewSQLNoteStore(database.DB)

	var archive services.ArchiveStore
	if config.Cfg.ArchiveBucket != "" {
		s3Archive, err := storage.NewS3Archive(ctx, config.Cfg.ArchiveBucket, config.Cfg.ArchiveRegion, config.Cfg.ArchiveEndpoint)
		if err != nil {
			logger.L.Error("FATAL: Failed to initialize blob archive", "bucket", config.Cfg.ArchiveBucket, "error", err)
			os.Exit(1)
		}
		archive = s3Archive
		logger.L.Info("Blob archive initialized", "bucket", config.Cfg.ArchiveBucket)
	} else {
		logger.L.Warn("Blob archive disabled: ARCHIVE_BUCKET not configured")
	}

	var extractor services.Extractor
	if config.Cfg.GeminiAPIKey != "" {
		geminiExtractor, err := extraction.NewGeminiExtractor(ctx, config.Cfg.GeminiAPIKey, config.Cfg.GeminiModel)
		if err != nil {
			logger.L.Error("FATAL: Failed to initialize extraction client", "error", err)
			os.Exit(1)
		}
		extractor = geminiExtractor
		logger.L.Info("Extraction client initialized", "model", config.Cfg.GeminiModel)
	} else {
		logger.L.Warn("Extraction disabled: GEMINI_API_KEY not configured; uploads will be rejected")
	}

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	processor := processors.NewDashboardProcessor(config.Cfg.BaseCapital)

	dashboardService := services.NewDashboardService(noteStore, processor, hub, appCache)
	ingestionService := services.NewIngestionService(archive, extractor, noteStore, dashboardService,
		config.Cfg.GeminiAPIKey != "", config.Cfg.MaxUploadSizeBytes)

	userHandler := handlers.NewUserHandler(authService)
	oauthHandler := handlers.NewOAuthHandler(authService)
	uploadHandler := handlers.NewUploadHandler(ingestionService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	streamHandler := handlers.NewStreamHandler(dashboardService, []string{allowedOriginPattern()})

	mux := http.NewServeMux()

	// Auth endpoints
	mux.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)
	mux.HandleFunc("POST /api/auth/register", handlers.CSRFMiddleware(userHandler.RegisterUserHandler))
	mux.HandleFunc("POST /api/auth/login", handlers.CSRFMiddleware(userHandler.LoginUserHandler))
	mux.HandleFunc("POST /api/auth/refresh", userHandler.RefreshTokenHandler)
	mux.HandleFunc("POST /api/auth/logout", handlers.CSRFMiddleware(handlers.AuthMiddleware(authService, userHandler.LogoutUserHandler)))
	mux.HandleFunc("GET /api/auth/google/login", oauthHandler.GoogleLoginHandler)
	mux.HandleFunc("GET /api/auth/google/callback", oauthHandler.GoogleCallbackHandler)

	// Contract note ingestion and analytics
	mux.HandleFunc("POST /api/upload", handlers.CSRFMiddleware(handlers.AuthMiddleware(authService, uploadHandler.HandleUpload)))
	mux.HandleFunc("GET /api/dashboard", handlers.AuthMiddleware(authService, dashboardHandler.HandleGetDashboard))
	mux.HandleFunc("GET /api/dashboard/stream", handlers.AuthMiddleware(authService, streamHandler.HandleDashboardStream))
	mux.HandleFunc("GET /api/contract-notes", handlers.AuthMiddleware(authService, dashboardHandler.HandleGetContractNotes))
	mux.HandleFunc("GET /api/trades", handlers.AuthMiddleware(authService, dashboardHandler.HandleGetTrades))
	mux.HandleFunc("GET /api/charges", handlers.AuthMiddleware(authService, dashboardHandler.HandleGetCharges))

	handlerChain := enableCORS(rateLimitMiddleware(mux))

	server := &http.Server{
		Addr:         ":" + config.Cfg.Port,
		Handler:      handlerChain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.L.Info("Server starting", "port", config.Cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("FATAL: Could not listen on port", "port", config.Cfg.Port, "error", err)
		os.Exit(1)
	}
	logger.L.Info("Server stopped")
}

func allowedOriginPattern() string {
	origin := config.Cfg.FrontendBaseURL
	origin = strings.TrimPrefix(origin, "http://")
	origin = strings.TrimPrefix(origin, "https://")
	return origin
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", config.Cfg.FrontendBaseURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies a simple global limiter. Per-IP limiting would
// need a keyed limiter map; a single bucket is enough for a small deployment.
var apiLimiter = rate.NewLimiter(rate.Limit(20), 40)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !apiLimiter.Allow() {
			utils.SendJSONError(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
